package athmovil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Config holds the credentials and transport settings of a Client.
type Config struct {
	PublicToken string
	// PrivateToken is only needed for refunds and webhook subscriptions.
	PrivateToken string

	BaseURL        string
	WebhookBaseURL string

	RequestTimeout time.Duration
	// MaxRetries bounds transport retries; a negative value disables them.
	MaxRetries     int
	RetryBaseDelay time.Duration

	InsecureSkipVerify bool

	// RequireMetadata makes metadata1 and metadata2 mandatory on payments.
	RequireMetadata bool
}

// Client is an ATH Móvil ecommerce API client. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *Metrics
	sleep      func(ctx context.Context, d time.Duration) error

	authMu     sync.Mutex
	authTokens map[string]string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger lets callers supply a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

var placeholderTokens = []string{"test", "placeholder", "your_token_here", "xxx", "todo"}

// NewClient validates cfg, fills in defaults and builds a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.PublicToken == "" {
		return nil, newError(KindValidation, "public token is required", nil)
	}
	if err := validateToken(cfg.PublicToken, "public token"); err != nil {
		return nil, err
	}
	if cfg.PrivateToken != "" {
		if err := validateToken(cfg.PrivateToken, "private token"); err != nil {
			return nil, err
		}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.WebhookBaseURL == "" {
		cfg.WebhookBaseURL = DefaultWebhookBaseURL
	}
	cfg.WebhookBaseURL = strings.TrimSuffix(cfg.WebhookBaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryDelay
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for sandbox endpoints
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout, Transport: transport},
		logger:     zap.NewNop(),
		sleep:      sleepContext,
		authTokens: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func validateToken(token, name string) error {
	switch {
	case strings.TrimSpace(token) == "":
		return newError(KindValidation, name+" cannot be empty or whitespace", nil)
	case strings.TrimSpace(token) != token:
		return newError(KindValidation, name+" contains leading or trailing whitespace", nil)
	case lo.Contains(placeholderTokens, strings.ToLower(token)):
		return newError(KindValidation, name+" appears to be a placeholder; use your actual ATH Móvil token", nil)
	case len(token) < 10:
		return newError(KindValidation, name+" appears to be invalid (too short)", nil)
	}
	return nil
}

// AuthToken returns the cached authorization token of a payment created by this client.
func (c *Client) AuthToken(ecommerceID string) (string, bool) {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	token, ok := c.authTokens[ecommerceID]
	return token, ok
}

func (c *Client) storeAuthToken(ecommerceID, token string) {
	c.authMu.Lock()
	c.authTokens[ecommerceID] = token
	c.authMu.Unlock()
}

func (c *Client) evictAuthToken(ecommerceID string) {
	c.authMu.Lock()
	delete(c.authTokens, ecommerceID)
	c.authMu.Unlock()
}

func (c *Client) resolveAuthToken(ecommerceID, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if token, ok := c.AuthToken(ecommerceID); ok && token != "" {
		return token, nil
	}
	return "", &Error{
		Kind:        KindAuthentication,
		Message:     "No auth token available. Create payment first or provide auth token.",
		EcommerceID: ecommerceID,
		Err:         ErrNoAuthToken,
	}
}

// CreatePayment validates req, submits it and caches the returned auth token.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	payload, err := NewPaymentPayload(c.cfg.PublicToken, req, c.cfg.RequireMetadata)
	if err != nil {
		return nil, err
	}

	c.logger.Info("creating payment",
		zap.String("total", payload.Total),
		zap.String("phone_number", MaskSensitive(payload.PhoneNumber)),
		zap.Int("items", len(payload.Items)),
	)

	var resp PaymentResponse
	if err := c.call(ctx, "create_payment", http.MethodPost, c.cfg.BaseURL+PaymentPath, "", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Data.EcommerceID == "" {
		return nil, malformed(0, errors.New("payment response missing ecommerceId"))
	}

	c.storeAuthToken(resp.Data.EcommerceID, resp.Data.AuthToken)
	c.logger.Info("payment created", zap.String("ecommerce_id", resp.Data.EcommerceID))
	return &resp, nil
}

// FindPayment fetches the current state of a payment.
func (c *Client) FindPayment(ctx context.Context, ecommerceID string) (*TransactionResponse, error) {
	if err := requireEcommerceID(ecommerceID); err != nil {
		return nil, err
	}

	payload := FindPaymentPayload{EcommerceID: ecommerceID, PublicToken: c.cfg.PublicToken}
	var resp TransactionResponse
	if err := c.call(ctx, "find_payment", http.MethodPost, c.cfg.BaseURL+FindPaymentPath, "", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuthorizePayment completes a confirmed payment. authToken may be empty when the
// payment was created by this client.
func (c *Client) AuthorizePayment(ctx context.Context, ecommerceID, authToken string) (*TransactionResponse, error) {
	token, err := c.resolveAuthToken(ecommerceID, authToken)
	if err != nil {
		return nil, err
	}

	c.logger.Info("authorizing payment",
		zap.String("ecommerce_id", ecommerceID),
		zap.String("auth_token", MaskSensitive(token)),
	)

	var resp TransactionResponse
	if err := c.call(ctx, "authorize_payment", http.MethodPost, c.cfg.BaseURL+AuthorizationPath, token, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePhoneNumber changes the phone number notified about a payment.
func (c *Client) UpdatePhoneNumber(ctx context.Context, ecommerceID, phoneNumber, authToken string) (*SuccessResponse, error) {
	token, err := c.resolveAuthToken(ecommerceID, authToken)
	if err != nil {
		return nil, err
	}
	payload, err := NewUpdatePhonePayload(ecommerceID, phoneNumber)
	if err != nil {
		return nil, err
	}

	var resp SuccessResponse
	if err := c.call(ctx, "update_phone_number", http.MethodPut, c.cfg.BaseURL+UpdatePhonePath, token, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelPayment cancels an open payment and forgets its auth token.
func (c *Client) CancelPayment(ctx context.Context, ecommerceID string) (*SuccessResponse, error) {
	if err := requireEcommerceID(ecommerceID); err != nil {
		return nil, err
	}

	payload := CancelPaymentPayload{EcommerceID: ecommerceID, PublicToken: c.cfg.PublicToken}
	var resp SuccessResponse
	if err := c.call(ctx, "cancel_payment", http.MethodPost, c.cfg.BaseURL+CancelPath, "", payload, &resp); err != nil {
		return nil, err
	}

	c.evictAuthToken(ecommerceID)
	c.logger.Info("payment cancelled", zap.String("ecommerce_id", ecommerceID))
	return &resp, nil
}

// RefundPayment refunds a completed transaction. It requires the private token.
func (c *Client) RefundPayment(ctx context.Context, req RefundRequest) (*RefundResponse, error) {
	if c.cfg.PrivateToken == "" {
		return nil, newError(KindAuthentication, "Private token required for refunds", ErrPrivateTokenRequired)
	}

	payload, err := NewRefundPayload(c.cfg.PublicToken, c.cfg.PrivateToken, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("refunding payment",
		zap.String("reference_number", payload.ReferenceNumber),
		zap.String("amount", payload.Amount),
	)

	var resp RefundResponse
	if err := c.call(ctx, "refund_payment", http.MethodPost, c.cfg.BaseURL+RefundPath, "", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func malformed(statusCode int, cause error) *Error {
	return &Error{
		Kind:       KindNetwork,
		Message:    fmt.Sprintf("invalid response: %v", cause),
		StatusCode: statusCode,
		Err:        fmt.Errorf("%w: %w", ErrMalformedResponse, cause),
	}
}
