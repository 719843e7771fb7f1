package athmovil

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// WebhookEvents selects the event families delivered to a webhook listener.
type WebhookEvents struct {
	PaymentReceived           bool `json:"paymentReceivedEvent"`
	RefundSent                bool `json:"refundSentEvent"`
	DonationReceived          bool `json:"donationReceivedEvent"`
	EcommercePaymentReceived  bool `json:"ecommercePaymentReceivedEvent"`
	EcommercePaymentCancelled bool `json:"ecommercePaymentCancelledEvent"`
	EcommercePaymentExpired   bool `json:"ecommercePaymentExpiredEvent"`
}

// DefaultWebhookEvents enables everything except donations.
func DefaultWebhookEvents() WebhookEvents {
	return WebhookEvents{
		PaymentReceived:           true,
		RefundSent:                true,
		EcommercePaymentReceived:  true,
		EcommercePaymentCancelled: true,
		EcommercePaymentExpired:   true,
	}
}

// WebhookSubscriptionPayload is the wire form of a subscription update.
type WebhookSubscriptionPayload struct {
	PublicToken  string `json:"publicToken"`
	PrivateToken string `json:"privateToken"`
	ListenerURL  string `json:"listenerURL" validate:"required,url,startswith=https://"`
	WebhookEvents
}

// NewWebhookSubscriptionPayload validates the listener URL and builds the payload.
func NewWebhookSubscriptionPayload(publicToken, privateToken, listenerURL string, events WebhookEvents) (*WebhookSubscriptionPayload, error) {
	payload := &WebhookSubscriptionPayload{
		PublicToken:   publicToken,
		PrivateToken:  privateToken,
		ListenerURL:   listenerURL,
		WebhookEvents: events,
	}

	fe := &fieldErrors{}
	fe.addStruct(payload)
	if !fe.empty() {
		return nil, fe.err("webhook subscription")
	}
	return payload, nil
}

// SubscribeWebhook registers listenerURL for the selected events. The listener must
// be served over HTTPS with a certificate the upstream trusts.
func (c *Client) SubscribeWebhook(ctx context.Context, listenerURL string, events WebhookEvents) (*SuccessResponse, error) {
	if c.cfg.PrivateToken == "" {
		return nil, newError(KindAuthentication, "private_token is required for webhook subscription", ErrPrivateTokenRequired)
	}

	payload, err := NewWebhookSubscriptionPayload(c.cfg.PublicToken, c.cfg.PrivateToken, listenerURL, events)
	if err != nil {
		return nil, err
	}

	c.logger.Info("subscribing webhook listener", zap.String("listener_url", listenerURL))

	var resp SuccessResponse
	if err := c.call(ctx, "subscribe_webhook", http.MethodPost, c.cfg.WebhookBaseURL+WebhookSubscribePath, "", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
