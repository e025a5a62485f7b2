package lessonservice

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/lessonhub/internal/common"
)

type MockMessageProducer struct {
	mock.Mock
	mu     sync.Mutex
	events []LessonEvent
}

func (m *MockMessageProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	args := m.Called(key, exchange)

	var e LessonEvent
	if err := json.Unmarshal(msg, &e); err == nil {
		m.mu.Lock()
		m.events = append(m.events, e)
		m.mu.Unlock()
	}

	return args.Error(0)
}

func (m *MockMessageProducer) Events() []LessonEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]LessonEvent(nil), m.events...)
}
