package lessonservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sushihentaime/lessonhub/internal/common"
)

var (
	ErrCourseForeignKey = errors.New("course_id does not exist")
	ErrEditorForeignKey = errors.New("editor does not exist")
)

const lessonColumns = `id, course_id, title, content, content_format, meta_description, estimated_minutes,
	status, order_number, version, last_edited_by, last_edited_at, created_at, updated_at`

func newLessonModel(db *sql.DB) *LessonModel {
	return &LessonModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (*Lesson, error) {
	var l Lesson
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.ContentFormat, &l.MetaDescription, &l.EstimatedMinutes,
		&l.Status, &l.OrderNumber, &l.Version, &l.LastEditedBy, &l.LastEditedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// writeError maps constraint violations raised by lesson writes to the
// package's sentinel errors and classifies everything else.
func writeError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrRecordNotFound
	case common.IsDatabaseError(common.ClassifyDBError(err), common.ForeignKeyViolation, "lessons_course_id_fkey"):
		return ErrCourseForeignKey
	case common.IsDatabaseError(common.ClassifyDBError(err), common.ForeignKeyViolation, ""):
		return ErrEditorForeignKey
	default:
		return common.ClassifyDBError(err)
	}
}

func (m *LessonModel) insert(ctx context.Context, tx *sql.Tx, l *Lesson) error {
	query := `
		INSERT INTO lessons (course_id, title, content, content_format, meta_description, estimated_minutes, status, order_number, version, last_edited_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9)
		RETURNING ` + lessonColumns

	args := []any{l.CourseID, l.Title, l.Content, l.ContentFormat, l.MetaDescription, l.EstimatedMinutes, l.Status, l.OrderNumber, l.LastEditedBy}

	inserted, err := scanLesson(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return writeError(err)
	}

	*l = *inserted
	return nil
}

func (m *LessonModel) get(ctx context.Context, id int) (*Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`

	l, err := scanLesson(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, common.ClassifyDBError(err)
		}
	}

	return l, nil
}

// getForUpdate reads the lesson and holds its row lock until tx ends, so the
// status and format it returns are the ones the following update sees.
func (m *LessonModel) getForUpdate(ctx context.Context, tx *sql.Tx, id int) (*Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1 FOR UPDATE`

	l, err := scanLesson(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, writeError(err)
	}

	return l, nil
}

type assignment struct {
	column string
	value  any
}

// assignments lists the columns a patch writes. Only these columns can ever
// appear in the SET clause of an update.
func (p *LessonPatch) assignments() []assignment {
	var a []assignment
	if p.Title != nil {
		a = append(a, assignment{"title", *p.Title})
	}
	if p.Content != nil {
		a = append(a, assignment{"content", *p.Content})
	}
	if p.ContentFormat != nil {
		a = append(a, assignment{"content_format", *p.ContentFormat})
	}
	if p.MetaDescription != nil {
		a = append(a, assignment{"meta_description", *p.MetaDescription})
	}
	if p.EstimatedMinutes != nil {
		a = append(a, assignment{"estimated_minutes", *p.EstimatedMinutes})
	}
	if p.Status != nil {
		a = append(a, assignment{"status", *p.Status})
	}
	if p.OrderNumber != nil {
		a = append(a, assignment{"order_number", *p.OrderNumber})
	}
	return a
}

// update applies the patch and bumps the version. Callers hold the row lock
// from getForUpdate, so concurrent writers to the same lesson queue up behind
// each other and each one increments the committed version.
func (m *LessonModel) update(ctx context.Context, tx *sql.Tx, id int, patch *LessonPatch, editorID int) (*Lesson, error) {
	set := []string{"version = version + 1", "last_edited_by = $1", "last_edited_at = NOW()", "updated_at = NOW()"}
	args := []any{editorID}

	for _, a := range patch.assignments() {
		args = append(args, a.value)
		set = append(set, fmt.Sprintf("%s = $%d", a.column, len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE lessons
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(set, ", "), len(args), lessonColumns)

	l, err := scanLesson(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, writeError(err)
	}

	return l, nil
}

// restore copies a snapshot's content into the live lesson as a new version.
func (m *LessonModel) restore(ctx context.Context, tx *sql.Tx, id int, v *Version, editorID int) (*Lesson, error) {
	query := `
		UPDATE lessons
		SET content = $1, content_format = $2, version = version + 1, last_edited_by = $3, last_edited_at = NOW(), updated_at = NOW()
		WHERE id = $4
		RETURNING ` + lessonColumns

	l, err := scanLesson(tx.QueryRowContext(ctx, query, v.Content, v.ContentFormat, editorID, id))
	if err != nil {
		return nil, writeError(err)
	}

	return l, nil
}

func (m *LessonModel) delete(ctx context.Context, id int) (*Lesson, error) {
	query := `DELETE FROM lessons WHERE id = $1 RETURNING ` + lessonColumns

	l, err := scanLesson(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, common.ClassifyDBError(err)
		}
	}

	return l, nil
}

// listByCourse returns up to limit lessons of a course with id greater than
// after, in ascending id order. A nil after starts from the beginning.
func (m *LessonModel) listByCourse(ctx context.Context, courseID int, after *int, limit int, publishedOnly bool) ([]Lesson, error) {
	var cursor int
	if after != nil {
		cursor = *after
	}

	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE course_id = $1 AND id > $2 AND ($3 = false OR status = 'published')
		ORDER BY id ASC
		LIMIT $4`

	rows, err := m.db.QueryContext(ctx, query, courseID, cursor, publishedOnly, limit)
	if err != nil {
		return nil, common.ClassifyDBError(err)
	}
	defer rows.Close()

	lessons := []Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, common.ClassifyDBError(err)
		}
		lessons = append(lessons, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, common.ClassifyDBError(err)
	}

	return lessons, nil
}

func (m *LessonModel) isEnrolled(ctx context.Context, userID, courseID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`

	var enrolled bool
	if err := m.db.QueryRowContext(ctx, query, userID, courseID).Scan(&enrolled); err != nil {
		return false, common.ClassifyDBError(err)
	}

	return enrolled, nil
}
