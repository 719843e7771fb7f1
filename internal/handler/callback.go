package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultCallbackTimeout = 15 * time.Second

// Callback event types.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventCheckoutFailed    = "checkout.failed"
	EventWebhookReceived   = "webhook.received"
)

// SignatureHeader carries "t=<unix>,v1=<hex hmac-sha256 of t.body>" when a secret is set.
const SignatureHeader = "X-Callback-Signature"

// CallbackEvent is the envelope posted to the downstream endpoint.
type CallbackEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// HTTPSCallbackSender posts signed JSON events to a downstream endpoint.
type HTTPSCallbackSender struct {
	url        string
	secret     string
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPSCallbackSender builds an HTTPS callback client.
func NewHTTPSCallbackSender(url, secret string, client *http.Client) (*HTTPSCallbackSender, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("callback URL is required")
	}

	if client == nil {
		client = &http.Client{Timeout: defaultCallbackTimeout}
	}

	return &HTTPSCallbackSender{
		url:        url,
		secret:     secret,
		httpClient: client,
		now:        time.Now,
	}, nil
}

// Send wraps data in a CallbackEvent and posts it.
func (h *HTTPSCallbackSender) Send(ctx context.Context, eventType string, data any) error {
	event := CallbackEvent{
		ID:   uuid.NewString(),
		Type: eventType,
		Data: data,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Callback-ID", event.ID)
	if h.secret != "" {
		timestamp := strconv.FormatInt(h.now().Unix(), 10)
		req.Header.Set(SignatureHeader, fmt.Sprintf("t=%s,v1=%s", timestamp, Sign(h.secret, timestamp, body)))
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send callback request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("callback endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}

// Sign returns the hex HMAC-SHA256 of "timestamp.body" under secret.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
