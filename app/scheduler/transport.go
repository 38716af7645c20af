package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amirphl/promo-engine/config"
)

// ErrRecipientUnreachable is returned by a Transport when the recipient blocked the bot or no longer exists
var ErrRecipientUnreachable = errors.New("recipient unreachable")

// RetryAfterError is returned by a Transport when the provider asks the caller to slow down
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.After)
}

// Transport sends content to one chat recipient. Errors other than ErrRecipientUnreachable
// and *RetryAfterError are treated as transient.
type Transport interface {
	SendText(ctx context.Context, recipient int64, text string) error
	SendMedia(ctx context.Context, recipient int64, photo, caption string) error
}

const defaultChatAPIBaseURL = "https://api.telegram.org"

type chatTransport struct {
	cfg    config.TransportConfig
	client *http.Client
}

// NewChatTransport creates a Transport for the chat provider's bot HTTP API
func NewChatTransport(cfg config.TransportConfig) Transport {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultChatAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &chatTransport{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type sendPhotoRequest struct {
	ChatID  int64  `json:"chat_id"`
	Photo   string `json:"photo"`
	Caption string `json:"caption,omitempty"`
}

type chatAPIResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

func (c *chatTransport) SendText(ctx context.Context, recipient int64, text string) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{ChatID: recipient, Text: text})
}

func (c *chatTransport) SendMedia(ctx context.Context, recipient int64, photo, caption string) error {
	return c.call(ctx, "sendPhoto", sendPhotoRequest{ChatID: recipient, Photo: photo, Caption: caption})
}

func (c *chatTransport) call(ctx context.Context, method string, body any) error {
	url := strings.TrimRight(c.cfg.APIBaseURL, "/") + "/bot" + c.cfg.BotToken + "/" + method
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response body: %w", method, err)
	}

	var apiResp chatAPIResponse
	_ = json.Unmarshal(raw, &apiResp)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && apiResp.OK {
		return nil
	}
	return classifyChatError(method, resp.StatusCode, apiResp)
}

func classifyChatError(method string, status int, apiResp chatAPIResponse) error {
	code := apiResp.ErrorCode
	if code == 0 {
		code = status
	}

	switch {
	case code == http.StatusTooManyRequests:
		after := time.Second
		if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
			after = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
		}
		return &RetryAfterError{After: after}
	case code == http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", method, apiResp.Description, ErrRecipientUnreachable)
	case code == http.StatusBadRequest && isChatGone(apiResp.Description):
		return fmt.Errorf("%s: %s: %w", method, apiResp.Description, ErrRecipientUnreachable)
	default:
		return fmt.Errorf("%s http status %d: %s", method, status, apiResp.Description)
	}
}

func isChatGone(description string) bool {
	d := strings.ToLower(description)
	return strings.Contains(d, "chat not found") || strings.Contains(d, "user is deactivated")
}
