package http

import (
	"encoding/json"

	"github.com/brlk/golang_services/internal/notification_service/domain"
)

// BookingWebhookRequest is the envelope posted by the scheduling platform.
type BookingWebhookRequest struct {
	TriggerEvent string          `json:"triggerEvent" validate:"omitempty,max=128"`
	CreatedAt    string          `json:"createdAt,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

func (r BookingWebhookRequest) toDomain() domain.BookingWebhook {
	return domain.BookingWebhook{
		TriggerEvent: r.TriggerEvent,
		CreatedAt:    r.CreatedAt,
		Payload:      r.Payload,
	}
}

// BookingWebhookResponse summarizes how a booking webhook was handled.
type BookingWebhookResponse struct {
	Status  domain.ProcessingStatus  `json:"status"`
	Message string                   `json:"message"`
	Result  *domain.ProcessingResult `json:"result,omitempty"`
}

// ReminderCallbackRequest is the reminder payload posted back by the delay queue.
type ReminderCallbackRequest struct {
	BookingID      string                 `json:"bookingId,omitempty" validate:"omitempty,max=256"`
	LeadTime       domain.LeadTime        `json:"leadTime,omitempty"`
	Phone          string                 `json:"phone" validate:"required,max=32"`
	Message        string                 `json:"message,omitempty" validate:"omitempty,max=1600"`
	TemplateParams *TemplateParamsRequest `json:"templateParams,omitempty" validate:"omitempty"`
}

type TemplateParamsRequest struct {
	Template   string                     `json:"template" validate:"omitempty,max=512"`
	Components []TemplateComponentRequest `json:"components" validate:"dive"`
}

type TemplateComponentRequest struct {
	Type string `json:"type" validate:"omitempty,oneof=text"`
	Text string `json:"text" validate:"max=1024"`
}

func (r ReminderCallbackRequest) toDomain() domain.ScheduledReminder {
	reminder := domain.ScheduledReminder{
		BookingID: r.BookingID,
		LeadTime:  r.LeadTime,
		Phone:     r.Phone,
		Message:   r.Message,
	}
	if r.TemplateParams != nil {
		tmpl := &domain.TemplatePayload{Template: r.TemplateParams.Template}
		for _, c := range r.TemplateParams.Components {
			tmpl.Components = append(tmpl.Components, domain.TemplateComponent{Type: c.Type, Text: c.Text})
		}
		reminder.TemplateParams = tmpl
	}
	return reminder
}

// ReminderCallbackResponse reports per-channel outcomes of one reminder callback.
type ReminderCallbackResponse struct {
	Status string                 `json:"status"`
	Result *domain.ReminderResult `json:"result"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Features map[string]bool `json:"features,omitempty"`
}
