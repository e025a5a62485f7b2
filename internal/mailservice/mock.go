package mailservice

import (
	"bytes"
	"context"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/lessonhub/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	if err := args.Error(3); err != nil {
		return nil, nil, nil, err
	}
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), nil
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

// MockMailer records every send. The first failures calls fail with err.
type MockMailer struct {
	mu       sync.Mutex
	failures int
	err      error
	attempts int
	sent     []string
	data     []any
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if m.attempts <= m.failures {
		return m.err
	}

	m.sent = append(m.sent, recipient)
	m.data = append(m.data, data)
	return nil
}

func (m *MockMailer) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func (m *MockMailer) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

type MockRecipientFinder struct {
	mock.Mock
}

func (f *MockRecipientFinder) EnrolledRecipients(ctx context.Context, courseID int) ([]Recipient, error) {
	args := f.Called(courseID)
	recipients, _ := args.Get(0).([]Recipient)
	return recipients, args.Error(1)
}

// MockMessageConsumer delivers Bodies once and then keeps the channel open
// until the test ends.
type MockMessageConsumer struct {
	mock.Mock
	Bodies [][]byte
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}

	msgs := make(chan amqp.Delivery, len(m.Bodies))
	for _, body := range m.Bodies {
		msgs <- amqp.Delivery{Body: body}
	}

	return msgs, nil
}
