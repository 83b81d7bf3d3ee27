package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// reminderNamespace seeds the deterministic deduplication ids of reminder handoffs.
var reminderNamespace = uuid.MustParse("6f1d2a4e-8b0c-4c7e-9a53-2f6e1b7d9c40")

// BookingService turns booking webhooks into an immediate confirmation and
// delayed reminder handoffs.
type BookingService struct {
	composer   *Composer
	dispatcher *dispatcher
	queue      DelayQueue
	events     EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewBookingService wires the booking pipeline. whatsapp, queue and events may be nil,
// which disables that feature.
func NewBookingService(
	composer *Composer,
	sms SMSSender,
	whatsapp TemplateSender,
	queue DelayQueue,
	events EventPublisher,
	callTimeout time.Duration,
	logger *slog.Logger,
) *BookingService {
	logger = logger.With("component", "booking_service")
	return &BookingService{
		composer: composer,
		dispatcher: &dispatcher{
			sms:         sms,
			whatsapp:    whatsapp,
			callTimeout: callTimeout,
			logger:      logger,
		},
		queue:  queue,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for reminder delays.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// HandleBookingEvent processes one booking webhook. Ignorable shapes (other triggers,
// no attendee, non-regional phone) return a result without error. An error is returned
// only when the payload cannot be validated or composed; delivery and handoff failures
// are recorded in the result instead.
func (s *BookingService) HandleBookingEvent(ctx context.Context, hook domain.BookingWebhook) (*domain.ProcessingResult, error) {
	timer := prometheus.NewTimer(bookingProcessingDurationHist)
	defer timer.ObserveDuration()

	result, err := s.handle(ctx, hook)
	if err != nil {
		bookingEventsCounter.WithLabelValues("error").Inc()
		return nil, err
	}
	bookingEventsCounter.WithLabelValues(string(result.Status)).Inc()
	s.publish(ctx, SubjectBookingProcessed, result)
	return result, nil
}

func (s *BookingService) handle(ctx context.Context, hook domain.BookingWebhook) (*domain.ProcessingResult, error) {
	if hook.TriggerEvent != domain.TriggerBookingCreated {
		s.logger.InfoContext(ctx, "Ignoring webhook trigger", "trigger_event", hook.TriggerEvent)
		return &domain.ProcessingResult{Status: domain.StatusIgnored}, nil
	}

	payload, err := domain.DecodeBookingPayload(hook.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode booking payload: %w", err)
	}
	bookingID := payload.ID()
	logger := s.logger.With("booking_id", bookingID)

	if !payload.HasAttendees() {
		logger.InfoContext(ctx, "Booking has no attendees; nothing to notify")
		return &domain.ProcessingResult{Status: domain.StatusNoAttendee, BookingID: bookingID}, nil
	}

	rawPhone := payload.AttendeePhone()
	phone, err := s.composer.Region().Normalize(rawPhone)
	if err != nil {
		if errors.Is(err, domain.ErrNonRegionalPhone) {
			logger.InfoContext(ctx, "Skipping attendee outside the supported region", "raw_phone", rawPhone)
			return &domain.ProcessingResult{Status: domain.StatusNonRegionalSkipped, BookingID: bookingID}, nil
		}
		return nil, fmt.Errorf("normalize phone for booking %s: %w", bookingID, err)
	}

	event, err := payload.ToEvent()
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, err)
	}
	msgs := s.composer.Compose(event, phone)
	now := s.now()

	logger.InfoContext(ctx, "Processing booking", "recipient", phone.String(), "start_time", event.StartTime)

	result := &domain.ProcessingResult{
		Status:    domain.StatusSuccess,
		BookingID: bookingID,
		Phone:     phone.String(),
	}

	var g errgroup.Group
	g.Go(func() error {
		conf := msgs.Confirmation
		result.Confirmation = s.dispatcher.deliver(ctx, phone.String(), conf.SMSBody, conf.Template, "confirmation")
		return nil
	})
	g.Go(func() error {
		result.Reminders = s.scheduleReminders(ctx, logger, event, phone, msgs.Reminders, now)
		return nil
	})
	_ = g.Wait()

	return result, nil
}

// scheduleReminders hands every future reminder to the delay queue concurrently.
// Results keep lead-time order.
func (s *BookingService) scheduleReminders(ctx context.Context, logger *slog.Logger, event domain.BookingEvent, phone domain.NormalizedPhone, reminders []Message, now time.Time) []domain.ReminderHandoff {
	handoffs := make([]domain.ReminderHandoff, len(reminders))

	var g errgroup.Group
	for i, msg := range reminders {
		g.Go(func() error {
			handoffs[i] = s.scheduleReminder(ctx, logger, event, phone, msg, now)
			reminderHandoffsCounter.WithLabelValues(msg.LeadTime.String(), string(handoffs[i].Status)).Inc()
			return nil
		})
	}
	_ = g.Wait()
	return handoffs
}

func (s *BookingService) scheduleReminder(ctx context.Context, logger *slog.Logger, event domain.BookingEvent, phone domain.NormalizedPhone, msg Message, now time.Time) domain.ReminderHandoff {
	lead := msg.LeadTime
	fireAt := lead.FireAt(event.StartTime)
	handoff := domain.ReminderHandoff{LeadTime: lead, FireAt: fireAt}
	logger = logger.With("lead_time", lead.String(), "fire_at", fireAt)

	if !fireAt.After(now) {
		logger.InfoContext(ctx, "Reminder fire time already passed; skipping")
		handoff.Status = domain.OutcomeSkipped
		handoff.Reason = "fire time is not in the future"
		return handoff
	}
	delay := fireAt.Sub(now).Truncate(time.Second)
	handoff.DelaySeconds = int64(delay / time.Second)

	if s.queue == nil {
		logger.WarnContext(ctx, "Delay queue not configured; reminder not scheduled")
		handoff.Status = domain.OutcomeSkipped
		handoff.Reason = "delay queue not configured"
		return handoff
	}

	reminder := domain.ScheduledReminder{
		BookingID: event.BookingID,
		LeadTime:  lead,
		Phone:     phone.String(),
		Message:   msg.SMSBody,
	}
	if msg.Template.Deliverable() {
		reminder.TemplateParams = msg.Template
	}
	job := domain.ReminderJob{
		DeduplicationID: deduplicationID(event.BookingID, lead),
		Delay:           delay,
		Reminder:        reminder,
	}

	callCtx, cancel := s.dispatcher.withTimeout(ctx)
	defer cancel()

	messageID, err := s.queue.Enqueue(callCtx, job)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to hand reminder to delay queue", "delay_seconds", handoff.DelaySeconds, "error", err)
		handoff.Status = domain.OutcomeFailed
		handoff.Reason = err.Error()
		return handoff
	}
	logger.InfoContext(ctx, "Reminder scheduled", "delay_seconds", handoff.DelaySeconds, "queue_message_id", messageID)
	handoff.Status = domain.OutcomeSent
	handoff.QueueMessageID = messageID
	return handoff
}

// deduplicationID is stable per (booking, lead time) so a retried webhook does not
// schedule the same reminder twice. Bookings without an id get none.
func deduplicationID(bookingID string, lead domain.LeadTime) string {
	if bookingID == "" {
		return ""
	}
	return uuid.NewSHA1(reminderNamespace, []byte(bookingID+":"+lead.String())).String()
}

func (s *BookingService) publish(ctx context.Context, subject string, v any) {
	publishEvent(ctx, s.events, s.logger, subject, v)
}

// publishEvent is best effort: failures are logged, never returned.
func publishEvent(ctx context.Context, events EventPublisher, logger *slog.Logger, subject string, v any) {
	if events == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to marshal outcome event", "subject", subject, "error", err)
		return
	}
	if err := events.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish outcome event", "subject", subject, "error", err)
	}
}
