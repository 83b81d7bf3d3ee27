package app

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
)

// ReminderService delivers reminders posted back by the delay queue.
// It keeps no state between calls, so a redelivered reminder is simply sent again.
type ReminderService struct {
	dispatcher *dispatcher
	events     EventPublisher
	logger     *slog.Logger
}

// NewReminderService wires the reminder callback. whatsapp and events may be nil.
func NewReminderService(sms SMSSender, whatsapp TemplateSender, events EventPublisher, callTimeout time.Duration, logger *slog.Logger) *ReminderService {
	logger = logger.With("component", "reminder_service")
	return &ReminderService{
		dispatcher: &dispatcher{
			sms:         sms,
			whatsapp:    whatsapp,
			callTimeout: callTimeout,
			logger:      logger,
		},
		events: events,
		logger: logger,
	}
}

// HandleReminder sends the reminder on every channel it carries content for.
// A missing phone is the only error; channel failures are reported in the result.
func (s *ReminderService) HandleReminder(ctx context.Context, reminder domain.ScheduledReminder) (*domain.ReminderResult, error) {
	lead := leadLabel(reminder.LeadTime)
	phone := strings.TrimSpace(reminder.Phone)
	if phone == "" {
		reminderCallbacksCounter.WithLabelValues(lead, "rejected").Inc()
		return nil, domain.ErrMissingPhone
	}

	kind := "reminder"
	if reminder.LeadTime != 0 {
		kind = lead
	}
	s.logger.InfoContext(ctx, "Delivering reminder", "booking_id", reminder.BookingID, "lead_time", lead, "recipient", phone)

	result := &domain.ReminderResult{
		BookingID: reminder.BookingID,
		LeadTime:  reminder.LeadTime,
		Outcomes:  s.dispatcher.deliver(ctx, phone, reminder.Message, reminder.TemplateParams, kind),
	}
	reminderCallbacksCounter.WithLabelValues(lead, "processed").Inc()
	publishEvent(ctx, s.events, s.logger, SubjectReminderDelivered, result)
	return result, nil
}

// leadLabel maps a lead time onto the fixed set of metric label values.
func leadLabel(l domain.LeadTime) string {
	switch {
	case l == 0:
		return "unspecified"
	case slices.Contains(domain.ReminderLeadTimes, l):
		return l.String()
	default:
		return "other"
	}
}
