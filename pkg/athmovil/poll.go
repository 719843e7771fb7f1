package athmovil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PollOptions bounds WaitForConfirmation. With neither MaxAttempts nor MaxWait set the
// loop only ends on a terminal status or when ctx is done.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
	// MaxWait is converted to an attempt budget of MaxWait / Interval (at least one)
	// when MaxAttempts is zero.
	MaxWait time.Duration
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	if o.MaxAttempts <= 0 && o.MaxWait > 0 {
		o.MaxAttempts = max(int(o.MaxWait/o.Interval), 1)
	}
	return o
}

// WaitForConfirmation polls FindPayment every opts.Interval until the payment is
// confirmed or completed. A cancelled payment gives a transaction error wrapping
// ErrPaymentCancelled; an exhausted budget gives a timeout error.
func (c *Client) WaitForConfirmation(ctx context.Context, ecommerceID string, opts PollOptions) (*TransactionResponse, error) {
	opts = opts.withDefaults()
	log := c.logger.With(zap.String("ecommerce_id", ecommerceID))

	for attempt := 1; ; attempt++ {
		resp, err := c.FindPayment(ctx, ecommerceID)
		if err != nil {
			return nil, err
		}

		if resp.Data != nil {
			switch resp.Data.EcommerceStatus {
			case StatusConfirm, StatusCompleted:
				log.Info("payment confirmed",
					zap.String("status", string(resp.Data.EcommerceStatus)),
					zap.Int("attempt", attempt),
				)
				return resp, nil
			case StatusCancel:
				return nil, &Error{
					Kind:        KindTransaction,
					Message:     "Payment was cancelled: " + ecommerceID,
					EcommerceID: ecommerceID,
					Err:         ErrPaymentCancelled,
				}
			}
		}

		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			return nil, &Error{
				Kind:        KindTimeout,
				Message:     fmt.Sprintf("Timeout waiting for payment confirmation: %s (%d attempts)", ecommerceID, attempt),
				EcommerceID: ecommerceID,
			}
		}

		log.Debug("payment not confirmed yet", zap.Int("attempt", attempt), zap.Duration("next_poll", opts.Interval))
		if err := c.sleep(ctx, opts.Interval); err != nil {
			return nil, &Error{
				Kind:        KindTimeout,
				Message:     "stopped waiting for payment confirmation: " + ecommerceID,
				EcommerceID: ecommerceID,
				Err:         err,
			}
		}
	}
}

// ProcessCompletePayment creates a payment, waits for the customer to confirm it and
// authorizes it. When waiting or authorizing fails the payment is cancelled on a best
// effort basis and the original error is returned.
func (c *Client) ProcessCompletePayment(ctx context.Context, req PaymentRequest, opts PollOptions) (*TransactionResponse, error) {
	created, err := c.CreatePayment(ctx, req)
	if err != nil {
		return nil, err
	}
	ecommerceID := created.Data.EcommerceID

	resp, err := c.WaitForConfirmation(ctx, ecommerceID, opts)
	if err == nil {
		resp, err = c.AuthorizePayment(ctx, ecommerceID, "")
	}
	if err != nil {
		c.cancelQuietly(ctx, ecommerceID, err)
		return nil, withEcommerceID(err, ecommerceID)
	}
	return resp, nil
}

// cancelQuietly runs even when ctx is already done so an abandoned payment does not
// stay open upstream.
func (c *Client) cancelQuietly(ctx context.Context, ecommerceID string, cause error) {
	cancelCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RequestTimeout)
	defer cancel()

	if _, err := c.CancelPayment(cancelCtx, ecommerceID); err != nil {
		c.logger.Warn("best-effort cancel failed",
			zap.String("ecommerce_id", ecommerceID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
	}
}

// withEcommerceID tags the first *Error in err's chain with the payment it belongs
// to. A wrapped *Error is returned unwrapped so callers see the tagged copy.
func withEcommerceID(err error, ecommerceID string) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.EcommerceID != "" {
		return err
	}
	dup := *apiErr
	dup.EcommerceID = ecommerceID
	return &dup
}
