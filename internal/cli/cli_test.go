package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/adapters/delayqueue"
	"github.com/brlk/golang_services/internal/notification_service/domain"
	httptransport "github.com/brlk/golang_services/internal/notification_service/transport/http"
	"github.com/brlk/golang_services/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prev := loadConfig
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() { loadConfig = prev })
}

func baseConfig() *config.Config {
	return &config.Config{
		ServerPort:                   8080,
		LogLevel:                     "error",
		OutboundCallTimeout:          5 * time.Second,
		TextLKSenderID:               "TextLKDemo",
		WhatsAppTemplateConfirmation: "meeting_confirmation",
		WhatsAppTemplateReminder:     "meeting_reminder",
		WhatsAppLanguageCode:         "en_US",
		RegionCallingCode:            "94",
		RegionTrunkPrefix:            "0",
		RegionUTCOffsetMinutes:       330,
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "notifyctl dev (commit=none, built=unknown)\n", out)
}

func TestSendTestWebhook(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhooks/cal", r.URL.Path)
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(httptransport.CalSignatureHeader)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.CalWebhookSecret = "cal-secret"
	useConfig(t, cfg)

	before := time.Now()
	out, err := run(t, "send-test-webhook", "--url", srv.URL, "--phone", "0771234567")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: 200")

	assert.Equal(t, httptransport.ComputeCalSignature("cal-secret", gotBody), gotSig)

	var hook domain.BookingWebhook
	require.NoError(t, json.Unmarshal(gotBody, &hook))
	assert.Equal(t, domain.TriggerBookingCreated, hook.TriggerEvent)

	payload, err := domain.DecodeBookingPayload(hook.Payload)
	require.NoError(t, err)
	require.Len(t, payload.Attendees, 1)
	assert.Equal(t, "0771234567", payload.Attendees[0].PhoneNumber)
	assert.Equal(t, "https://meet.google.com/test-link", payload.MeetingLink())

	start, err := time.Parse(time.RFC3339, payload.StartTime)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(62*time.Minute), start, 5*time.Second)
}

func TestSendTestWebhook_RejectedStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Webhook signature verification failed", http.StatusUnauthorized)
	}))
	defer srv.Close()
	useConfig(t, baseConfig())

	_, err := run(t, "send-test-webhook", "--url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendTestReminder_SignedForPublicCallbackURL(t *testing.T) {
	cfg := baseConfig()
	cfg.QStashCurrentSigningKey = "current-key"
	cfg.QStashNextSigningKey = "next-key"
	cfg.PublicBaseURL = "https://notify.example.com"
	useConfig(t, cfg)

	verifier := delayqueue.NewSignatureVerifier(cfg.QStashCurrentSigningKey, cfg.QStashNextSigningKey)
	var reminder domain.ScheduledReminder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := verifier.Verify(r.Header.Get(httptransport.QStashSignatureHeader), body, cfg.CallbackURL()); err != nil {
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
		_ = json.Unmarshal(body, &reminder)
		_, _ = w.Write([]byte(`{"status":"processed"}`))
	}))
	defer srv.Close()

	_, err := run(t, "send-test-reminder", "--url", srv.URL, "--lead", "ten_minutes", "--booking-id", "bk_9")
	require.NoError(t, err)

	assert.Equal(t, "bk_9", reminder.BookingID)
	assert.Equal(t, domain.TenMinutes, reminder.LeadTime)
	assert.Equal(t, defaultTestPhone, reminder.Phone)
	assert.Equal(t, "meeting_reminder", reminder.TemplateParams.Template)
	assert.Equal(t, "10 mins", reminder.TemplateParams.Params()[1])
}

func TestSendTestReminder_InvalidLead(t *testing.T) {
	useConfig(t, baseConfig())
	_, err := run(t, "send-test-reminder", "--url", "http://127.0.0.1:1", "--lead", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --lead")
}

func TestSendSMS_Scheduled(t *testing.T) {
	var (
		gotQuery string
		gotBody  map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("schedule_time")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"status":"success","message":"queued","data":{"uid":"uid-1"}}`))
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.TextLKAPIURL = srv.URL
	cfg.TextLKAPIToken = "token"
	useConfig(t, cfg)

	out, err := run(t, "send-sms", "--to", "94771234567", "--message", "hello", "--at", "2026-01-22T04:30:00Z")
	require.NoError(t, err)

	assert.Equal(t, "2026-01-22 10:00", gotQuery)
	assert.Equal(t, "2026-01-22 10:00", gotBody["schedule_time"])
	assert.Equal(t, "hello", gotBody["message"])
	assert.Contains(t, out, "Message id: uid-1")
	assert.Contains(t, out, "Scheduled for: 2026-01-22 10:00")
}

func TestSendSMS_RequiresToken(t *testing.T) {
	useConfig(t, baseConfig())
	_, err := run(t, "send-sms", "--to", "94771234567", "--message", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEXTLK_API_TOKEN")
}

func TestParseScheduleTime(t *testing.T) {
	got, err := parseScheduleTime("2026-01-22 10:00", domain.SriLanka)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 1, 22, 4, 30, 0, 0, time.UTC)))

	_, err = parseScheduleTime("tomorrow", domain.SriLanka)
	assert.Error(t, err)
}

func TestListTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/pn-1":
			_, _ = w.Write([]byte(`{"id":"pn-1","verified_name":"br.lk","display_phone_number":"+94 77 789 5327","quality_rating":"GREEN","whatsapp_business_account_id":"waba-1"}`))
		case "/waba-1/message_templates":
			_, _ = w.Write([]byte(`{"data":[{"id":"t1","name":"meeting_confirmation","status":"APPROVED","language":"en_US","category":"UTILITY"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := baseConfig()
	cfg.WhatsAppAPIURL = srv.URL
	cfg.WhatsAppAccessToken = "wa-token"
	cfg.WhatsAppPhoneNumberID = "pn-1"
	useConfig(t, cfg)

	out, err := run(t, "list-templates")
	require.NoError(t, err)
	assert.Contains(t, out, "Business account: waba-1")
	assert.Contains(t, out, "meeting_confirmation")
	assert.Contains(t, out, "APPROVED")
	assert.Contains(t, out, "utility")
}

func TestTestTemplate_RequiresCredentials(t *testing.T) {
	useConfig(t, baseConfig())
	_, err := run(t, "test-template")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WHATSAPP_ACCESS_TOKEN")
}
