package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/app"
	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/brlk/golang_services/internal/notification_service/provider"
	"github.com/brlk/golang_services/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSMSSender(t *testing.T) {
	t.Run("token configured", func(t *testing.T) {
		sender := newSMSSender(&config.Config{TextLKAPIToken: "token"}, domain.SriLanka, nil, discardLogger())
		assert.IsType(t, &provider.TextLKProvider{}, sender)
	})

	t.Run("mock only on opt-in", func(t *testing.T) {
		sender := newSMSSender(&config.Config{SMSMockEnabled: true}, domain.SriLanka, nil, discardLogger())
		assert.IsType(t, &provider.MockSMSProvider{}, sender)
	})

	t.Run("no token is a nil sender", func(t *testing.T) {
		sender := newSMSSender(&config.Config{}, domain.SriLanka, nil, discardLogger())
		assert.Nil(t, sender)
	})
}

func TestMissingSMSTokenReportsSkippedDeliveries(t *testing.T) {
	sender := newSMSSender(&config.Config{}, domain.SriLanka, nil, discardLogger())
	service := app.NewReminderService(sender, nil, nil, time.Second, discardLogger())

	result, err := service.HandleReminder(context.Background(), domain.ScheduledReminder{
		LeadTime: domain.OneHour,
		Phone:    "94771234567",
		Message:  "Reminder",
	})
	require.NoError(t, err)

	sms, ok := result.Outcome(domain.ChannelSMS)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeSkipped, sms.Status)
	assert.Empty(t, sms.ProviderMessageID)
}
