package delayqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brlk/golang_services/internal/notification_service/domain"
)

// QStashClient publishes delayed reminder callbacks to Upstash QStash.
type QStashClient struct {
	logger      *slog.Logger
	httpClient  *http.Client
	baseURL     string
	token       string
	callbackURL string
}

// NewQStashClient builds a client that schedules POSTs to callbackURL.
func NewQStashClient(logger *slog.Logger, baseURL, token, callbackURL string, httpClient *http.Client) *QStashClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &QStashClient{
		logger:      logger.With("component", "qstash_client"),
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		callbackURL: callbackURL,
	}
}

// PublishResponse is the body QStash returns for a single-destination publish.
type PublishResponse struct {
	MessageID    string `json:"messageId"`
	URL          string `json:"url,omitempty"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Enqueue publishes job.Reminder as the JSON body of a callback delivered after job.Delay.
func (c *QStashClient) Enqueue(ctx context.Context, job domain.ReminderJob) (string, error) {
	body, err := json.Marshal(job.Reminder)
	if err != nil {
		return "", fmt.Errorf("failed to marshal reminder: %w", err)
	}

	endpoint := c.baseURL + "/v2/publish/" + c.callbackURL
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create QStash request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if delay := int64(job.Delay / time.Second); delay > 0 {
		req.Header.Set("Upstash-Delay", strconv.FormatInt(delay, 10)+"s")
	}
	if job.DeduplicationID != "" {
		req.Header.Set("Upstash-Deduplication-Id", job.DeduplicationID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to QStash: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("QStash returned status %d and the body could not be read: %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("QStash publish failed: status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("QStash publish failed: status %d", resp.StatusCode)
	}

	var published PublishResponse
	if err := json.Unmarshal(respBody, &published); err != nil {
		return "", fmt.Errorf("failed to decode QStash response: %w", err)
	}
	if published.MessageID == "" {
		return "", errors.New("QStash response did not include a message id")
	}

	c.logger.DebugContext(ctx, "Published reminder to QStash",
		"message_id", published.MessageID,
		"deduplicated", published.Deduplicated,
		"delay", job.Delay)
	return published.MessageID, nil
}
