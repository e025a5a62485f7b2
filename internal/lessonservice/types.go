package lessonservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/lessonhub/internal/common"
	"go.uber.org/zap"
)

type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

const (
	initialChangeDescription = "Initial version"
	defaultChangeDescription = "Updated content"
)

type Lesson struct {
	ID       int    `json:"id"`
	CourseID int    `json:"course_id"`
	Title    string `json:"title"`
	// Content is stored in ContentFormat.
	Content          string        `json:"content"`
	ContentFormat    ContentFormat `json:"content_format"`
	MetaDescription  string        `json:"meta_description"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	Status           Status        `json:"status"`
	OrderNumber      int           `json:"order_number"`
	Version          int           `json:"version"`
	LastEditedBy     *int          `json:"last_edited_by"`
	LastEditedAt     time.Time     `json:"last_edited_at"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Version is an immutable snapshot of a lesson's content.
type Version struct {
	ID                int           `json:"id"`
	LessonID          int           `json:"lesson_id"`
	Version           int           `json:"version"`
	Content           string        `json:"content"`
	ContentFormat     ContentFormat `json:"content_format"`
	CreatedBy         *int          `json:"created_by"`
	CreatedAt         time.Time     `json:"created_at"`
	ChangeDescription string        `json:"change_description"`
}

type CreateLessonRequest struct {
	CourseID         int           `json:"course_id"`
	Title            string        `json:"title"`
	Content          string        `json:"content"`
	ContentFormat    ContentFormat `json:"content_format"`
	MetaDescription  string        `json:"meta_description"`
	EstimatedMinutes int           `json:"estimated_minutes"`
	Status           Status        `json:"status"`
	OrderNumber      int           `json:"order_number"`
}

// LessonPatch holds the fields of a partial update. Nil fields are left
// untouched. ChangeDescription is only recorded when Content is set.
type LessonPatch struct {
	Title             *string        `json:"title"`
	Content           *string        `json:"content"`
	ContentFormat     *ContentFormat `json:"content_format"`
	MetaDescription   *string        `json:"meta_description"`
	EstimatedMinutes  *int           `json:"estimated_minutes"`
	Status            *Status        `json:"status"`
	OrderNumber       *int           `json:"order_number"`
	ChangeDescription *string        `json:"change_description"`
}

// Viewer is the identity a read is performed for. Editors see lessons in any
// status; everyone else only sees published ones.
type Viewer struct {
	ID     int
	Editor bool
}

// LessonEvent is published after a lesson changes.
type LessonEvent struct {
	Type     string `json:"type"`
	LessonID int    `json:"lesson_id"`
	CourseID int    `json:"course_id"`
	Title    string `json:"title"`
	Version  int    `json:"version"`
	EditorID int    `json:"editor_id"`
}

type LessonModel struct {
	db *sql.DB
}

type LessonService struct {
	m      *LessonModel
	c      *common.CacheAside
	mb     common.MessageProducer
	logger *zap.Logger
}
