package app

import (
	"context"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) SendSMS(ctx context.Context, recipient, message string) (string, error) {
	args := m.Called(ctx, recipient, message)
	return args.String(0), args.Error(1)
}

type MockTemplateSender struct {
	mock.Mock
}

func (m *MockTemplateSender) SendTemplate(ctx context.Context, recipient string, tmpl *domain.TemplatePayload) (string, error) {
	args := m.Called(ctx, recipient, tmpl)
	return args.String(0), args.Error(1)
}

type MockDelayQueue struct {
	mock.Mock
}

func (m *MockDelayQueue) Enqueue(ctx context.Context, job domain.ReminderJob) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}
