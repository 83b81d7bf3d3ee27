package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const MaxRequestBodySize = 1 << 20 // 1 MB

// RootMessage is the liveness text served at GET /.
const RootMessage = "Webhook server is running. Send POST requests to /webhooks/cal"

// BookingEventProcessor handles validated booking webhooks.
type BookingEventProcessor interface {
	HandleBookingEvent(ctx context.Context, hook domain.BookingWebhook) (*domain.ProcessingResult, error)
}

// ReminderProcessor delivers reminders posted back by the delay queue.
type ReminderProcessor interface {
	HandleReminder(ctx context.Context, reminder domain.ScheduledReminder) (*domain.ReminderResult, error)
}

// HandlerOptions configures webhook verification and the health report.
type HandlerOptions struct {
	CalWebhookSecret string
	QStashVerifier   SignatureVerifier
	CallbackURL      string
	Features         map[string]bool
}

type WebhookHandler struct {
	bookings  BookingEventProcessor
	reminders ReminderProcessor
	validate  *validator.Validate
	logger    *slog.Logger
	opts      HandlerOptions
}

func NewWebhookHandler(bookings BookingEventProcessor, reminders ReminderProcessor, validate *validator.Validate, logger *slog.Logger, opts HandlerOptions) *WebhookHandler {
	return &WebhookHandler{
		bookings:  bookings,
		reminders: reminders,
		validate:  validate,
		logger:    logger.With("component", "webhook_handler"),
		opts:      opts,
	}
}

// RegisterRoutes mounts the liveness, health and webhook routes.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Route("/webhooks", func(wr chi.Router) {
		wr.With(CalSignatureMiddleware(h.opts.CalWebhookSecret, h.logger)).Post("/cal", h.HandleBookingWebhook)
		wr.With(QStashSignatureMiddleware(h.opts.QStashVerifier, h.opts.CallbackURL, h.logger)).Post("/reminder", h.HandleReminderCallback)
	})
}

func (h *WebhookHandler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, RootMessage)
}

func (h *WebhookHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Features: h.opts.Features})
}

var statusMessages = map[domain.ProcessingStatus]string{
	domain.StatusIgnored:            "Webhook received, but not a booking event.",
	domain.StatusNoAttendee:         "No attendees found in booking.",
	domain.StatusNonRegionalSkipped: "Skipped attendee outside the supported region.",
	domain.StatusSuccess:            "All messages processed",
}

// HandleBookingWebhook receives booking events from the scheduling platform.
// Every recognized outcome is a 200; only validation or composition failures are a 500.
func (h *WebhookHandler) HandleBookingWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	body, ok := readBody(w, r, logger)
	if !ok {
		return
	}

	var req BookingWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		logger.WarnContext(ctx, "Failed to decode booking webhook JSON", "error", err)
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Booking webhook failed validation", "error", err)
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	logger.InfoContext(ctx, "Received booking webhook", "trigger_event", req.TriggerEvent)

	result, err := h.bookings.HandleBookingEvent(ctx, req.toDomain())
	if err != nil {
		logger.ErrorContext(ctx, "Error processing booking webhook", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, BookingWebhookResponse{
		Status:  result.Status,
		Message: statusMessages[result.Status],
		Result:  result,
	})
}

// HandleReminderCallback receives reminders from the delay queue. The same payload
// may arrive more than once; each arrival is delivered independently.
func (h *WebhookHandler) HandleReminderCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	body, ok := readBody(w, r, logger)
	if !ok {
		return
	}

	var req ReminderCallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		logger.WarnContext(ctx, "Failed to decode reminder callback JSON", "error", err)
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		logger.WarnContext(ctx, "Reminder callback failed validation", "error", err)
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	logger.InfoContext(ctx, "Received reminder callback",
		"booking_id", req.BookingID,
		"lead_time", req.LeadTime.String(),
		"retried", r.Header.Get("Upstash-Retried"),
		"queue_message_id", r.Header.Get("Upstash-Message-Id"))

	result, err := h.reminders.HandleReminder(ctx, req.toDomain())
	if err != nil {
		if errors.Is(err, domain.ErrMissingPhone) {
			http.Error(w, "phone is required", http.StatusBadRequest)
			return
		}
		logger.ErrorContext(ctx, "Error processing reminder callback", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ReminderCallbackResponse{Status: "processed", Result: result})
}

// readBody reads a size-capped request body, writing the error response itself on failure.
func readBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.WarnContext(r.Context(), "Failed to read request body", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "Error reading request body", http.StatusBadRequest)
		}
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
