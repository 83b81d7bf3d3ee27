package app

import (
	"context"

	"github.com/brlk/golang_services/internal/notification_service/domain"
)

// SMSSender delivers one plain-text SMS now and returns the gateway's message id.
type SMSSender interface {
	SendSMS(ctx context.Context, recipient, message string) (string, error)
}

// TemplateSender delivers one pre-approved template message now.
type TemplateSender interface {
	SendTemplate(ctx context.Context, recipient string, tmpl *domain.TemplatePayload) (string, error)
}

// DelayQueue hands a reminder to an external at-least-once delay queue and
// returns the queue's message id.
type DelayQueue interface {
	Enqueue(ctx context.Context, job domain.ReminderJob) (string, error)
}

// EventPublisher publishes processing outcomes for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Outcome event subjects.
const (
	SubjectBookingProcessed  = "notifications.booking.processed"
	SubjectReminderDelivered = "notifications.reminder.delivered"
)
