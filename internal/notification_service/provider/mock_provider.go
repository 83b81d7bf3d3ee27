package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// MockSMSProvider logs instead of sending. It stands in for the SMS gateway when no
// gateway token is configured and in tests.
type MockSMSProvider struct {
	logger         *slog.Logger
	FailSend       bool
	SimulatedDelay time.Duration
}

func NewMockSMSProvider(logger *slog.Logger, failSend bool, delay time.Duration) *MockSMSProvider {
	return &MockSMSProvider{
		logger:         logger.With("provider", "mock"),
		FailSend:       failSend,
		SimulatedDelay: delay,
	}
}

// Send simulates an SMS send, honouring ctx cancellation during the simulated delay.
func (p *MockSMSProvider) Send(ctx context.Context, details SendRequestDetails) (*SendResponseDetails, error) {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(p.GetName()))
	defer timer.ObserveDuration()

	p.logger.InfoContext(ctx, "MockSMSProvider: Send called",
		"recipient", details.Recipient,
		"content_length", len(details.Content),
		"scheduled", !details.ScheduleAt.IsZero())

	if p.SimulatedDelay > 0 {
		select {
		case <-time.After(p.SimulatedDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.FailSend {
		errMsg := "mock provider simulated send failure"
		p.logger.WarnContext(ctx, errMsg, "recipient", details.Recipient)
		return &SendResponseDetails{
			ProviderStatus: "FAILED_MOCK",
			ErrorMessage:   errMsg,
		}, errors.New(errMsg)
	}

	return &SendResponseDetails{
		ProviderMessageID: "mock-" + uuid.NewString(),
		IsSuccess:         true,
		ProviderStatus:    "SENT_MOCK_OK",
	}, nil
}

// SendSMS sends message to recipient immediately.
func (p *MockSMSProvider) SendSMS(ctx context.Context, recipient, message string) (string, error) {
	return sendSMS(ctx, p, recipient, message)
}

// SendTemplate lets the mock stand in for the template channel as well.
func (p *MockSMSProvider) SendTemplate(ctx context.Context, recipient string, tmpl *domain.TemplatePayload) (string, error) {
	if !tmpl.Deliverable() {
		return "", errors.New("template name and parameters are required")
	}
	resp, err := p.Send(ctx, SendRequestDetails{Recipient: recipient, Content: tmpl.Template})
	if err != nil {
		return "", err
	}
	return resp.ProviderMessageID, nil
}

func (p *MockSMSProvider) GetName() string {
	return "mock"
}
