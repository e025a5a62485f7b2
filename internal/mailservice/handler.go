package mailservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/sushihentaime/lessonhub/internal/common"
	"github.com/sushihentaime/lessonhub/internal/lessonservice"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 500 * time.Millisecond
)

func NewMailService(db *sql.DB, mb common.MessageConsumer, cfg MailConfig, logger *zap.Logger) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          NewMailer(cfg, NewTemplate()),
		recipients: NewRecipientModel(db),
		logger:     logger,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NotifyLessonPublished consumes lesson.published events and mails every
// student enrolled in the lesson's course. It returns once the consumer is
// registered; deliveries are handled until Close is called.
func (s *MailService) NotifyLessonPublished() error {
	msgs, err := s.mb.Consume(common.LessonPublishedKey, common.LessonExchange, common.LessonPublishedQueue)
	if err != nil {
		s.logger.Error("could not consume message", zap.Error(err))
		return err
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				s.handleLessonPublished(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping NotifyLessonPublished due to context cancellation")
				return
			}
		}
	}()

	return nil
}

func (s *MailService) handleLessonPublished(msg amqp.Delivery) {
	// acked in every case: a poison message or an unreachable SMTP server
	// must not block the queue
	defer msg.Ack(false)

	var event lessonservice.LessonEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		s.logger.Error("could not unmarshal message", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	recipients, err := s.recipients.EnrolledRecipients(ctx, event.CourseID)
	cancel()
	if err != nil {
		s.logger.Error("could not load recipients", zap.Int("course_id", event.CourseID), zap.Error(err))
		return
	}

	for _, r := range recipients {
		data := LessonPublishedData{
			Username:    r.Username,
			CourseTitle: r.CourseTitle,
			LessonTitle: event.Title,
			LessonURL:   fmt.Sprintf("%s/v1/lessons/%d", s.baseURL, event.LessonID),
			Version:     event.Version,
		}

		if err := s.sendWithBackoff(r.Email, data); err != nil {
			s.logger.Error("could not send lesson notification", zap.String("email", r.Email), zap.Int("lesson_id", event.LessonID), zap.Error(err))
			continue
		}

		s.logger.Info("lesson notification sent", zap.String("email", r.Email), zap.Int("lesson_id", event.LessonID))
	}
}

// sendWithBackoff retries with exponential backoff and full jitter.
func (s *MailService) sendWithBackoff(email string, data any) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = s.m.send(email, data, lessonPublishedTemplate)
		if err == nil {
			return nil
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying lesson notification", zap.String("email", email), zap.Int("attempt", attempt), zap.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}

	return err
}

func (s *MailService) Close() {
	s.cancel()
}
