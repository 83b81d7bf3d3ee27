package provider

import (
	"context"
	"time"
)

// SendRequestDetails holds what an SMS provider needs for one message.
type SendRequestDetails struct {
	Recipient  string
	Content    string
	ScheduleAt time.Time // zero sends immediately
}

// SendResponseDetails is the outcome of one send attempt.
type SendResponseDetails struct {
	ProviderMessageID string
	IsSuccess         bool
	ProviderStatus    string // e.g. "SENT_TEXTLK_200", "FAILED_TEXTLK_401"
	ErrorMessage      string
}

// SMSSenderProvider is implemented by every SMS gateway.
type SMSSenderProvider interface {
	Send(ctx context.Context, details SendRequestDetails) (*SendResponseDetails, error)
	GetName() string
}

// sendSMS adapts a provider to the plain SendSMS call used by the notification pipeline.
func sendSMS(ctx context.Context, p SMSSenderProvider, recipient, message string) (string, error) {
	resp, err := p.Send(ctx, SendRequestDetails{Recipient: recipient, Content: message})
	if err != nil {
		return "", err
	}
	return resp.ProviderMessageID, nil
}
