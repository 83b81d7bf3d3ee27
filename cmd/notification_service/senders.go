package main

import (
	"log/slog"
	"net/http"

	"github.com/brlk/golang_services/internal/notification_service/app"
	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/brlk/golang_services/internal/notification_service/provider"
	"github.com/brlk/golang_services/internal/platform/config"
)

// newSMSSender returns the Text.lk provider when a token is configured, the mock
// only when SMS_MOCK_ENABLED opts in, and otherwise a nil sender so deliveries
// are reported as skipped.
func newSMSSender(cfg *config.Config, region domain.Region, client *http.Client, logger *slog.Logger) app.SMSSender {
	switch {
	case cfg.TextLKAPIToken != "":
		return provider.NewTextLKProvider(logger, cfg.TextLKAPIURL, cfg.TextLKAPIToken, cfg.TextLKSenderID, region, client)
	case cfg.SMSMockEnabled:
		logger.Warn("TEXTLK_API_TOKEN not set and SMS_MOCK_ENABLED is on, SMS goes to the mock provider and is never delivered")
		return provider.NewMockSMSProvider(logger, false, 0)
	default:
		logger.Warn("TEXTLK_API_TOKEN not set, SMS channel disabled")
		return nil
	}
}
