package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// TextLKProvider sends plain SMS through the Text.lk v3 HTTP API.
type TextLKProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiURL     string
	apiToken   string
	senderID   string
	region     domain.Region
}

// NewTextLKProvider builds a Text.lk provider. region formats schedule times in the
// gateway's local civil time.
func NewTextLKProvider(logger *slog.Logger, apiURL, apiToken, senderID string, region domain.Region, httpClient *http.Client) *TextLKProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TextLKProvider{
		logger:     logger.With("provider", "textlk"),
		httpClient: httpClient,
		apiURL:     apiURL,
		apiToken:   apiToken,
		senderID:   senderID,
		region:     region,
	}
}

// TextLKSendRequestBody is the JSON body of POST /api/v3/sms/send.
type TextLKSendRequestBody struct {
	Recipient    string `json:"recipient"`
	SenderID     string `json:"sender_id"`
	Type         string `json:"type"`
	Message      string `json:"message"`
	ScheduleTime string `json:"schedule_time,omitempty"`
}

// TextLKResponse covers both the success and error envelopes of the API.
type TextLKResponse struct {
	Status  string          `json:"status"` // "success" or "error"
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type textLKMessageData struct {
	UID string `json:"uid"`
}

func (p *TextLKProvider) Send(ctx context.Context, details SendRequestDetails) (resp *SendResponseDetails, err error) {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(p.GetName()))
	defer timer.ObserveDuration()
	defer func() { observeResult(p.GetName(), err) }()

	body := TextLKSendRequestBody{
		Recipient: details.Recipient,
		SenderID:  p.senderID,
		Type:      "plain",
		Message:   details.Content,
	}
	endpoint := p.apiURL
	if !details.ScheduleAt.IsZero() {
		body.ScheduleTime = p.region.FormatLocal(details.ScheduleAt)
		// The gateway reads schedule_time from the query string on some plans.
		endpoint = endpoint + "?schedule_time=" + url.QueryEscape(body.ScheduleTime)
	}

	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for Text.lk: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request for Text.lk: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiToken)

	p.logger.DebugContext(ctx, "Sending HTTP request to Text.lk", "url", endpoint, "recipient", details.Recipient, "schedule_time", body.ScheduleTime)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to send request to Text.lk", "error", err, "recipient", details.Recipient)
		return nil, fmt.Errorf("failed to send request to Text.lk: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		msg := fmt.Sprintf("Text.lk request returned status %d and the body could not be read: %v", httpResp.StatusCode, err)
		return &SendResponseDetails{
			ProviderStatus: fmt.Sprintf("FAILED_TEXTLK_READ_ERR_%d", httpResp.StatusCode),
			ErrorMessage:   msg,
		}, errors.New(msg)
	}
	p.logger.DebugContext(ctx, "Received HTTP response from Text.lk", "status_code", httpResp.StatusCode, "body", string(respBody))

	var parsed TextLKResponse
	parseErr := json.Unmarshal(respBody, &parsed)

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 && (parseErr != nil || parsed.Status != "error") {
		if parseErr != nil {
			p.logger.WarnContext(ctx, "Text.lk accepted the message but the response was not JSON", "status_code", httpResp.StatusCode, "body", string(respBody))
			return &SendResponseDetails{
				IsSuccess:      true,
				ProviderStatus: fmt.Sprintf("SENT_TEXTLK_%d_UNPARSED_RESP", httpResp.StatusCode),
			}, nil
		}
		var data textLKMessageData
		_ = json.Unmarshal(parsed.Data, &data)
		p.logger.InfoContext(ctx, "Successfully sent SMS via Text.lk", "recipient", details.Recipient, "provider_message_id", data.UID)
		return &SendResponseDetails{
			ProviderMessageID: data.UID,
			IsSuccess:         true,
			ProviderStatus:    fmt.Sprintf("SENT_TEXTLK_%d", httpResp.StatusCode),
		}, nil
	}

	errMsg := fmt.Sprintf("Text.lk API error: status %d", httpResp.StatusCode)
	switch {
	case parseErr == nil && parsed.Message != "":
		errMsg = fmt.Sprintf("Text.lk API error: status %d, message: %s", httpResp.StatusCode, parsed.Message)
	case parseErr != nil && len(respBody) > 0 && len(respBody) < 200:
		errMsg = fmt.Sprintf("Text.lk API error: status %d, raw_body: %s", httpResp.StatusCode, string(respBody))
	}
	p.logger.WarnContext(ctx, "Text.lk send failed", "status_code", httpResp.StatusCode, "error_message", errMsg, "body", string(respBody))
	return &SendResponseDetails{
		ProviderStatus: fmt.Sprintf("FAILED_TEXTLK_%d", httpResp.StatusCode),
		ErrorMessage:   errMsg,
	}, errors.New(errMsg)
}

// SendSMS sends message to recipient immediately.
func (p *TextLKProvider) SendSMS(ctx context.Context, recipient, message string) (string, error) {
	return sendSMS(ctx, p, recipient, message)
}

func (p *TextLKProvider) GetName() string {
	return "textlk"
}
