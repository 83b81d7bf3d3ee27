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
	"strings"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// WhatsAppProvider sends pre-approved template messages through the WhatsApp Cloud API.
type WhatsAppProvider struct {
	logger        *slog.Logger
	httpClient    *http.Client
	apiURL        string // e.g. https://graph.facebook.com/v22.0
	accessToken   string
	phoneNumberID string
	languageCode  string
}

func NewWhatsAppProvider(logger *slog.Logger, apiURL, accessToken, phoneNumberID, languageCode string, httpClient *http.Client) *WhatsAppProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if languageCode == "" {
		languageCode = "en_US"
	}
	return &WhatsAppProvider{
		logger:        logger.With("provider", "whatsapp"),
		httpClient:    httpClient,
		apiURL:        strings.TrimRight(apiURL, "/"),
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		languageCode:  languageCode,
	}
}

// WhatsAppMessageRequest is the body of POST /{phone-number-id}/messages for templates.
type WhatsAppMessageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type,omitempty"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Template         WhatsAppTemplate `json:"template"`
}

type WhatsAppTemplate struct {
	Name       string              `json:"name"`
	Language   WhatsAppLanguage    `json:"language"`
	Components []WhatsAppComponent `json:"components,omitempty"`
}

type WhatsAppLanguage struct {
	Code string `json:"code"`
}

type WhatsAppComponent struct {
	Type       string              `json:"type"`
	Parameters []WhatsAppParameter `json:"parameters"`
}

type WhatsAppParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// WhatsAppMessageResponse is the success body of the messages endpoint.
type WhatsAppMessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// WhatsAppErrorResponse is the Graph API error envelope.
type WhatsAppErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// SendTemplate sends tmpl to recipient. A leading '+' on the recipient is dropped.
func (p *WhatsAppProvider) SendTemplate(ctx context.Context, recipient string, tmpl *domain.TemplatePayload) (id string, err error) {
	timer := prometheus.NewTimer(providerRequestDurationHist.WithLabelValues(p.GetName()))
	defer timer.ObserveDuration()
	defer func() { observeResult(p.GetName(), err) }()

	if !tmpl.Deliverable() {
		return "", errors.New("template name and parameters are required")
	}

	params := make([]WhatsAppParameter, 0, len(tmpl.Components))
	for _, c := range tmpl.Components {
		typ := c.Type
		if typ == "" {
			typ = "text"
		}
		params = append(params, WhatsAppParameter{Type: typ, Text: c.Text})
	}
	body := WhatsAppMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               strings.TrimPrefix(strings.TrimSpace(recipient), "+"),
		Type:             "template",
		Template: WhatsAppTemplate{
			Name:       tmpl.Template,
			Language:   WhatsAppLanguage{Code: p.languageCode},
			Components: []WhatsAppComponent{{Type: "body", Parameters: params}},
		},
	}

	var resp WhatsAppMessageResponse
	endpoint := fmt.Sprintf("%s/%s/messages", p.apiURL, url.PathEscape(p.phoneNumberID))
	if err := p.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		p.logger.WarnContext(ctx, "WhatsApp template send failed", "recipient", body.To, "template", tmpl.Template, "error", err)
		return "", err
	}

	if len(resp.Messages) > 0 {
		id = resp.Messages[0].ID
	}
	p.logger.InfoContext(ctx, "Successfully sent WhatsApp template", "recipient", body.To, "template", tmpl.Template, "provider_message_id", id)
	return id, nil
}

// PhoneNumberInfo describes the sending phone number and its business account.
type PhoneNumberInfo struct {
	ID                        string `json:"id"`
	VerifiedName              string `json:"verified_name"`
	DisplayPhoneNumber        string `json:"display_phone_number"`
	QualityRating             string `json:"quality_rating"`
	WhatsAppBusinessAccountID string `json:"whatsapp_business_account_id"`
}

// MessageTemplate is one template registered on the business account.
type MessageTemplate struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Language   string            `json:"language"`
	Category   string            `json:"category"`
	Components []json.RawMessage `json:"components,omitempty"`
}

// TemplateListing is the result of ListTemplates.
type TemplateListing struct {
	PhoneNumber PhoneNumberInfo
	Templates   []MessageTemplate
}

// ListTemplates resolves the business account behind the configured phone number
// and returns its message templates.
func (p *WhatsAppProvider) ListTemplates(ctx context.Context) (*TemplateListing, error) {
	var info PhoneNumberInfo
	phoneURL := fmt.Sprintf("%s/%s?fields=%s", p.apiURL, url.PathEscape(p.phoneNumberID),
		url.QueryEscape("verified_name,display_phone_number,quality_rating,whatsapp_business_account_id"))
	if err := p.do(ctx, http.MethodGet, phoneURL, nil, &info); err != nil {
		return nil, fmt.Errorf("fetch phone number info: %w", err)
	}
	if info.WhatsAppBusinessAccountID == "" {
		return nil, errors.New("phone number response did not include a business account id")
	}

	var page struct {
		Data []MessageTemplate `json:"data"`
	}
	templatesURL := fmt.Sprintf("%s/%s/message_templates?fields=%s", p.apiURL, url.PathEscape(info.WhatsAppBusinessAccountID),
		url.QueryEscape("name,status,language,category,components"))
	if err := p.do(ctx, http.MethodGet, templatesURL, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch message templates: %w", err)
	}
	return &TemplateListing{PhoneNumber: info, Templates: page.Data}, nil
}

// do performs an authenticated Graph API call and decodes a 2xx body into out.
func (p *WhatsAppProvider) do(ctx context.Context, method, endpoint string, in, out any) error {
	var reader io.Reader
	if in != nil {
		reqBytes, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal WhatsApp request: %w", err)
		}
		reader = bytes.NewReader(reqBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create WhatsApp request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.accessToken)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to WhatsApp: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("WhatsApp request returned status %d and the body could not be read: %w", httpResp.StatusCode, err)
	}
	p.logger.DebugContext(ctx, "Received HTTP response from WhatsApp", "method", method, "status_code", httpResp.StatusCode, "body", string(respBody))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var apiErr WhatsAppErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("WhatsApp API error: status %d, code %d: %s", httpResp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("WhatsApp API error: status %d, raw_body: %s", httpResp.StatusCode, truncate(string(respBody), 200))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode WhatsApp response: %w", err)
	}
	return nil
}

func (p *WhatsAppProvider) GetName() string {
	return "whatsapp"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
