package mailservice

import (
	"bytes"
	"context"
	"database/sql"
	"html/template"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"
	"go.uber.org/zap"

	"github.com/sushihentaime/lessonhub/internal/common"
)

const lessonPublishedTemplate = "lesson_published.tmpl"

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	// BaseURL prefixes the lesson links in outgoing mail.
	BaseURL string
}

type MailService struct {
	mb         common.MessageConsumer
	m          Mailer
	recipients RecipientFinder
	logger     *zap.Logger
	baseURL    string
	maxRetries int
	baseDelay  time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
}

// Recipient is an enrolled user who is told about new lessons of a course.
type Recipient struct {
	Username    string
	Email       string
	CourseTitle string
}

type RecipientFinder interface {
	EnrolledRecipients(ctx context.Context, courseID int) ([]Recipient, error)
}

type RecipientModel struct {
	db *sql.DB
}

// LessonPublishedData is the data the lesson_published template renders.
type LessonPublishedData struct {
	Username    string
	CourseTitle string
	LessonTitle string
	LessonURL   string
	Version     int
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct {
	mu     sync.Mutex
	parsed map[string]*template.Template
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}
