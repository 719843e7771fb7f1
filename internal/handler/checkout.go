package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/berniyo/athmovil-lambda/pkg/athmovil"
)

// PaymentClient defines the subset of the ATH Móvil client used by the processor.
type PaymentClient interface {
	ProcessCompletePayment(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error)
}

// CheckoutEvent represents the payload sent to the Lambda function.
type CheckoutEvent struct {
	athmovil.PaymentRequest
	OrderID string `json:"orderId,omitempty"`
}

// Checkout outcomes.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// CheckoutResponse is emitted after processing completes.
type CheckoutResponse struct {
	EcommerceID     string                    `json:"ecommerceId,omitempty"`
	Status          string                    `json:"status"`
	ReferenceNumber string                    `json:"referenceNumber,omitempty"`
	Transaction     *athmovil.TransactionData `json:"transaction,omitempty"`
	ErrorKind       athmovil.ErrorKind        `json:"errorKind,omitempty"`
	ErrorCode       string                    `json:"errorCode,omitempty"`
	Message         string                    `json:"message,omitempty"`
	Request         CheckoutEvent             `json:"request"`
}

// CallbackSender delivers outcomes to downstream systems.
type CallbackSender interface {
	Send(ctx context.Context, eventType string, data any) error
}

// CheckoutProcessor runs the create, confirm and authorize flow for one checkout.
type CheckoutProcessor struct {
	client       PaymentClient
	pollInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
	callback     CallbackSender
}

// Option customizes the processor.
type Option func(*CheckoutProcessor)

// WithPollInterval adjusts the delay between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(p *CheckoutProcessor) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithTimeout overrides how long the customer has to confirm.
func WithTimeout(d time.Duration) Option {
	return func(p *CheckoutProcessor) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger lets callers supply a custom logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *CheckoutProcessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCallbackSender wires a callback destination invoked after processing concludes.
func WithCallbackSender(sender CallbackSender) Option {
	return func(p *CheckoutProcessor) {
		p.callback = sender
	}
}

// NewCheckoutProcessor builds a CheckoutProcessor with sane defaults.
func NewCheckoutProcessor(client PaymentClient, opts ...Option) *CheckoutProcessor {
	p := &CheckoutProcessor{
		client:       client,
		pollInterval: athmovil.DefaultPollInterval,
		timeout:      athmovil.DefaultTimeoutSeconds * time.Second,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Handle implements the AWS Lambda handler entry point. A payment the customer
// cancels or never confirms is reported as a failed response, not as an error.
func (p *CheckoutProcessor) Handle(ctx context.Context, event CheckoutEvent) (CheckoutResponse, error) {
	log := p.logger.With(zap.String("order_id", event.OrderID))
	log.Info("starting checkout",
		zap.String("total", event.Total.String()),
		zap.String("phone_number", athmovil.MaskSensitive(event.PhoneNumber)),
	)

	txn, err := p.client.ProcessCompletePayment(ctx, event.PaymentRequest, athmovil.PollOptions{
		Interval: p.pollInterval,
		MaxWait:  p.timeout,
	})
	if err != nil {
		var apiErr *athmovil.Error
		if errors.As(err, &apiErr) && isCheckoutOutcome(apiErr) {
			log.Warn("checkout not completed",
				zap.String("ecommerce_id", apiErr.EcommerceID),
				zap.String("kind", string(apiErr.Kind)),
				zap.Error(err),
			)
			resp := CheckoutResponse{
				EcommerceID: apiErr.EcommerceID,
				Status:      StatusFailed,
				ErrorKind:   apiErr.Kind,
				ErrorCode:   apiErr.Code,
				Message:     failureMessage(apiErr, p.timeout),
				Request:     event,
			}
			p.emitCallback(ctx, EventCheckoutFailed, resp)
			return resp, nil
		}
		return CheckoutResponse{}, fmt.Errorf("checkout failed: %w", err)
	}

	resp := CheckoutResponse{
		Status:      StatusCompleted,
		Transaction: txn.Data,
		Request:     event,
	}
	if txn.Data != nil {
		resp.EcommerceID = txn.Data.EcommerceID
		resp.ReferenceNumber = txn.Data.ReferenceNumber
	}
	log.Info("checkout completed",
		zap.String("ecommerce_id", resp.EcommerceID),
		zap.String("reference_number", resp.ReferenceNumber),
	)
	p.emitCallback(ctx, EventCheckoutCompleted, resp)
	return resp, nil
}

// isCheckoutOutcome reports whether err ended an already created payment.
func isCheckoutOutcome(err *athmovil.Error) bool {
	if err.EcommerceID == "" {
		return false
	}
	return err.Kind == athmovil.KindTimeout || err.Kind == athmovil.KindTransaction
}

func failureMessage(err *athmovil.Error, timeout time.Duration) string {
	switch {
	case errors.Is(err, athmovil.ErrPaymentCancelled):
		return "payment was cancelled by the customer"
	case err.Kind == athmovil.KindTimeout:
		return fmt.Sprintf("payment not confirmed within %s", timeout)
	default:
		return err.Message
	}
}

func (p *CheckoutProcessor) emitCallback(ctx context.Context, eventType string, resp CheckoutResponse) {
	if p.callback == nil {
		return
	}
	if err := p.callback.Send(ctx, eventType, resp); err != nil {
		p.logger.Error("callback delivery failed", zap.String("event_type", eventType), zap.Error(err))
	}
}
