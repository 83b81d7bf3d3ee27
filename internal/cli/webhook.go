package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/adapters/delayqueue"
	"github.com/brlk/golang_services/internal/notification_service/domain"
	httptransport "github.com/brlk/golang_services/internal/notification_service/transport/http"
	"github.com/spf13/cobra"
)

const defaultTestPhone = "94777123456"

func newSendTestWebhookCmd() *cobra.Command {
	var (
		target  string
		phone   string
		startIn time.Duration
	)

	c := &cobra.Command{
		Use:   "send-test-webhook",
		Short: "Post a synthetic BOOKING_CREATED event to a running service",
		Long: "Posts a booking that starts --start-in from now (default 62m), so the one-hour\n" +
			"reminder fires about two minutes later. Signs the request when CAL_WEBHOOK_SECRET is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			start := now.Add(startIn)

			body, err := json.Marshal(testBooking(phone, now, start))
			if err != nil {
				return err
			}

			headers := map[string]string{}
			if cfg.CalWebhookSecret != "" {
				headers[httptransport.CalSignatureHeader] = httptransport.ComputeCalSignature(cfg.CalWebhookSecret, body)
			}

			endpoint := serviceURL(target, cfg) + "/webhooks/cal"
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current time:      %s\n", now.Format(time.RFC3339))
			fmt.Fprintf(out, "Meeting start:     %s\n", start.Format(time.RFC3339))
			fmt.Fprintf(out, "1-hour reminder:   %s\n", domain.OneHour.FireAt(start).Format(time.RFC3339))
			fmt.Fprintf(out, "Sending webhook to %s\n", endpoint)

			status, resp, err := postJSON(cmd.Context(), newHTTPClient(cfg), endpoint, body, headers)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Status: %d\nResponse: %s\n", status, bytes.TrimSpace(resp))
			if status >= http.StatusMultipleChoices {
				return fmt.Errorf("webhook rejected with status %d", status)
			}
			return nil
		},
	}

	c.Flags().StringVar(&target, "url", "", "service base URL (defaults to PUBLIC_BASE_URL, then localhost)")
	c.Flags().StringVar(&phone, "phone", defaultTestPhone, "attendee phone number")
	c.Flags().DurationVar(&startIn, "start-in", 62*time.Minute, "how far in the future the meeting starts")
	return c
}

func testBooking(phone string, now, start time.Time) map[string]any {
	return map[string]any{
		"triggerEvent": domain.TriggerBookingCreated,
		"createdAt":    now.Format(time.RFC3339),
		"payload": map[string]any{
			"uid":       fmt.Sprintf("test-reminder-%d", now.UnixMilli()),
			"startTime": start.Format(time.RFC3339),
			"attendees": []domain.Attendee{{
				Name:        "Test User",
				Email:       "test@example.com",
				PhoneNumber: phone,
			}},
			"metadata": domain.BookingMetadata{VideoCallURL: "https://meet.google.com/test-link"},
			"location": "Google Meet",
		},
	}
}

func newSendTestReminderCmd() *cobra.Command {
	var (
		target    string
		phone     string
		lead      string
		bookingID string
		message   string
	)

	c := &cobra.Command{
		Use:   "send-test-reminder",
		Short: "Post a synthetic reminder callback to a running service",
		Long:  "Posts a reminder payload as the delay queue would. Signs it with the current QStash signing key when one is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var leadTime domain.LeadTime
			if err := leadTime.UnmarshalText([]byte(lead)); err != nil {
				return fmt.Errorf("invalid --lead: %w", err)
			}
			if message == "" {
				message = fmt.Sprintf("Reminder: your test meeting starts in %s.", leadTime.Label())
			}
			reminder := domain.ScheduledReminder{
				BookingID: bookingID,
				LeadTime:  leadTime,
				Phone:     phone,
				Message:   message,
				TemplateParams: domain.NewTemplatePayload(cfg.WhatsAppTemplateReminder,
					[]string{"Test User", leadTime.Label(), "https://meet.google.com/test-link"}),
			}
			body, err := json.Marshal(reminder)
			if err != nil {
				return err
			}

			endpoint := serviceURL(target, cfg) + "/webhooks/reminder"
			headers := map[string]string{}
			if cfg.QStashCurrentSigningKey != "" {
				// The service verifies against its own public callback URL.
				signedURL := endpoint
				if cfg.PublicBaseURL != "" {
					signedURL = cfg.CallbackURL()
				}
				sig, err := delayqueue.Sign(cfg.QStashCurrentSigningKey, signedURL, body, time.Now())
				if err != nil {
					return fmt.Errorf("sign reminder: %w", err)
				}
				headers[httptransport.QStashSignatureHeader] = sig
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sending reminder to %s\n", endpoint)
			status, resp, err := postJSON(cmd.Context(), newHTTPClient(cfg), endpoint, body, headers)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Status: %d\nResponse: %s\n", status, bytes.TrimSpace(resp))
			if status >= http.StatusMultipleChoices {
				return fmt.Errorf("reminder rejected with status %d", status)
			}
			return nil
		},
	}

	c.Flags().StringVar(&target, "url", "", "service base URL (defaults to PUBLIC_BASE_URL, then localhost)")
	c.Flags().StringVar(&phone, "phone", defaultTestPhone, "recipient phone number")
	c.Flags().StringVar(&lead, "lead", domain.OneHour.String(), "lead time: one_hour or ten_minutes")
	c.Flags().StringVar(&bookingID, "booking-id", "test-booking", "booking id carried in the payload")
	c.Flags().StringVar(&message, "message", "", "SMS body (defaults to a short reminder)")
	return c
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, body []byte, headers map[string]string) (int, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
