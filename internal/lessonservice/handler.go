package lessonservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sushihentaime/lessonhub/internal/common"
	"go.uber.org/zap"
)

const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventReverted  = "reverted"
	EventPublished = "published"
	EventDeleted   = "deleted"
)

// LessonView is a lesson as seen by one viewer.
type LessonView struct {
	Lesson
	Enrolled bool `json:"enrolled"`
}

// NewLessonService wires the service. mb may be nil, in which case no events
// are published.
func NewLessonService(db *sql.DB, c *common.CacheAside, mb common.MessageProducer, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LessonService{
		m:      newLessonModel(db),
		c:      c,
		mb:     mb,
		logger: logger,
	}
}

// CreateLesson inserts a lesson at version 1 together with its initial
// snapshot.
func (s *LessonService) CreateLesson(ctx context.Context, req *CreateLessonRequest, authorID int) (*Lesson, error) {
	if req.ContentFormat == "" {
		req.ContentFormat = FormatMarkdown
	}
	if req.Status == "" {
		req.Status = StatusDraft
	}

	v := common.NewValidator()
	validateCreateLesson(v, req)
	validateInt(v, authorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	l := &Lesson{
		CourseID:         req.CourseID,
		Title:            req.Title,
		Content:          sanitizeContent(req.Content, req.ContentFormat),
		ContentFormat:    req.ContentFormat,
		MetaDescription:  req.MetaDescription,
		EstimatedMinutes: req.EstimatedMinutes,
		Status:           req.Status,
		OrderNumber:      req.OrderNumber,
		LastEditedBy:     &authorID,
	}

	err := common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		if err := s.m.insert(ctx, tx, l); err != nil {
			return err
		}

		return s.m.insertVersion(ctx, tx, &Version{
			LessonID:          l.ID,
			Version:           l.Version,
			Content:           l.Content,
			ContentFormat:     l.ContentFormat,
			CreatedBy:         &authorID,
			ChangeDescription: initialChangeDescription,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLesson(ctx, l.ID)

	event := EventCreated
	if l.Status == StatusPublished {
		event = EventPublished
	}
	s.publish(ctx, event, l, authorID)

	return l, nil
}

// UpdateLesson applies a partial update. Every update bumps the version; only
// updates that carry content append a snapshot.
func (s *LessonService) UpdateLesson(ctx context.Context, id int, patch *LessonPatch, editorID int) (*Lesson, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateInt(v, editorID, "editor_id")
	validateLessonPatch(v, patch)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var l, prev *Lesson
	err := common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		var err error
		prev, err = s.m.getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if patch.Content != nil {
			format := prev.ContentFormat
			if patch.ContentFormat != nil {
				format = *patch.ContentFormat
			}
			sanitized := sanitizeContent(*patch.Content, format)
			patch.Content = &sanitized
		}

		l, err = s.m.update(ctx, tx, id, patch, editorID)
		if err != nil {
			return err
		}

		if patch.Content == nil {
			return nil
		}

		description := defaultChangeDescription
		if patch.ChangeDescription != nil && *patch.ChangeDescription != "" {
			description = *patch.ChangeDescription
		}

		return s.m.insertVersion(ctx, tx, &Version{
			LessonID:          l.ID,
			Version:           l.Version,
			Content:           l.Content,
			ContentFormat:     l.ContentFormat,
			CreatedBy:         &editorID,
			ChangeDescription: description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLesson(ctx, l.ID)

	event := EventUpdated
	if prev.Status != StatusPublished && l.Status == StatusPublished {
		event = EventPublished
	}
	s.publish(ctx, event, l, editorID)

	return l, nil
}

// RevertLesson restores the content of a snapshot as a new version. History is
// never rewritten: the target snapshot stays and a copy is appended on top.
func (s *LessonService) RevertLesson(ctx context.Context, id, versionNumber, editorID int) (*Lesson, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	validateInt(v, versionNumber, "version")
	validateInt(v, editorID, "editor_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	target, err := s.m.getVersion(ctx, id, versionNumber)
	if err != nil {
		return nil, err
	}

	var l *Lesson
	err = common.WithTx(ctx, s.m.db, func(tx *sql.Tx) error {
		var err error
		l, err = s.m.restore(ctx, tx, id, target, editorID)
		if err != nil {
			return err
		}

		return s.m.insertVersion(ctx, tx, &Version{
			LessonID:          l.ID,
			Version:           l.Version,
			Content:           target.Content,
			ContentFormat:     target.ContentFormat,
			CreatedBy:         &editorID,
			ChangeDescription: fmt.Sprintf("Reverted to version %d", versionNumber),
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLesson(ctx, l.ID)
	s.publish(ctx, EventReverted, l, editorID)

	return l, nil
}

// DeleteLesson removes a lesson and, through the foreign key, its history.
func (s *LessonService) DeleteLesson(ctx context.Context, id, editorID int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	l, err := s.m.delete(ctx, id)
	if err != nil {
		return err
	}

	s.invalidateLesson(ctx, id)
	s.publish(ctx, EventDeleted, l, editorID)

	return nil
}

// GetLesson returns a lesson for viewer. Lessons that are not published are
// only visible to editors; for anyone else they do not exist.
func (s *LessonService) GetLesson(ctx context.Context, id int, viewer Viewer) (*LessonView, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.LessonKey(id)
	if viewer.ID > 0 {
		key = common.LessonViewerKey(id, viewer.ID, viewer.Editor)
	}

	return common.ReadThrough(ctx, s.c, key, common.TTLDefault, func(ctx context.Context) (*LessonView, error) {
		l, err := s.m.get(ctx, id)
		if err != nil {
			return nil, err
		}

		if !viewer.Editor && l.Status != StatusPublished {
			return nil, common.ErrRecordNotFound
		}

		view := &LessonView{Lesson: *l}
		if viewer.ID > 0 {
			view.Enrolled, err = s.m.isEnrolled(ctx, viewer.ID, l.CourseID)
			if err != nil {
				return nil, err
			}
		}

		return view, nil
	})
}

// ListVersions returns the snapshots of a lesson, newest first. A lesson
// without snapshots yields an empty list.
func (s *LessonService) ListVersions(ctx context.Context, id int) ([]Version, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return common.ReadThrough(ctx, s.c, common.LessonVersionsKey(id), common.TTLDefault, func(ctx context.Context) ([]Version, error) {
		return s.m.listVersions(ctx, id)
	})
}

// ListCourseLessons pages through a course's lessons in id order. Pages are
// read straight from the database.
func (s *LessonService) ListCourseLessons(ctx context.Context, courseID int, cursor string, limit int, viewer Viewer) (common.Page[Lesson], error) {
	v := common.NewValidator()
	validateInt(v, courseID, "course_id")
	if !v.Valid() {
		return common.Page[Lesson]{}, v.ValidationError()
	}

	after, err := common.DecodeCursor(cursor)
	if err != nil {
		return common.Page[Lesson]{}, err
	}

	limit = common.NormalizeLimit(limit)

	lessons, err := s.m.listByCourse(ctx, courseID, after, limit, !viewer.Editor)
	if err != nil {
		return common.Page[Lesson]{}, err
	}

	return common.NewPage(lessons, limit, func(l Lesson) int { return l.ID }), nil
}

// invalidateLesson drops every cached view of the lesson. It runs after the
// transaction has committed.
func (s *LessonService) invalidateLesson(ctx context.Context, id int) {
	s.c.Invalidate(ctx, common.LessonKey(id), common.LessonVersionsKey(id))
	s.c.InvalidatePrefix(ctx, common.LessonPrefix(id))
}

// publish emits a lesson event. Failures are logged; the write has already
// been committed.
func (s *LessonService) publish(ctx context.Context, eventType string, l *Lesson, editorID int) {
	if s.mb == nil {
		return
	}

	msg, err := json.Marshal(LessonEvent{
		Type:     eventType,
		LessonID: l.ID,
		CourseID: l.CourseID,
		Title:    l.Title,
		Version:  l.Version,
		EditorID: editorID,
	})
	if err != nil {
		s.logger.Error("could not encode lesson event", zap.Int("lesson_id", l.ID), zap.Error(err))
		return
	}

	key := common.LessonChangedKey
	if eventType == EventPublished {
		key = common.LessonPublishedKey
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.mb.Publish(ctx, msg, key, common.LessonExchange); err != nil {
		s.logger.Error("could not publish lesson event", zap.String("type", eventType), zap.Int("lesson_id", l.ID), zap.Error(err))
	}
}
