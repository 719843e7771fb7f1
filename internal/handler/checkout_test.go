package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/berniyo/athmovil-lambda/pkg/athmovil"
)

const sampleEcommerceID = "550e8400-e29b-41d4-a716-446655440000"

type fakeClient struct {
	processFn func(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error)
}

func (f *fakeClient) ProcessCompletePayment(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error) {
	return f.processFn(ctx, req, opts)
}

type sentEvent struct {
	eventType string
	data      any
}

type fakeCallback struct {
	calls []sentEvent
	err   error
}

func (f *fakeCallback) Send(ctx context.Context, eventType string, data any) error {
	f.calls = append(f.calls, sentEvent{eventType: eventType, data: data})
	return f.err
}

func checkoutEvent() CheckoutEvent {
	return CheckoutEvent{
		OrderID: "order-1",
		PaymentRequest: athmovil.PaymentRequest{
			Total:       "5.00",
			PhoneNumber: "7875551234",
			Items:       []athmovil.PaymentItem{{Name: "T", Description: "T", Quantity: 1, Price: "5.00"}},
		},
	}
}

func TestCheckoutProcessorHandleSuccess(t *testing.T) {
	var gotOpts athmovil.PollOptions
	client := &fakeClient{
		processFn: func(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error) {
			gotOpts = opts
			return &athmovil.TransactionResponse{
				Status: "success",
				Data: &athmovil.TransactionData{
					EcommerceStatus: athmovil.StatusCompleted,
					EcommerceID:     sampleEcommerceID,
					ReferenceNumber: "REF-1",
				},
			}, nil
		},
	}

	cb := &fakeCallback{}
	processor := NewCheckoutProcessor(
		client,
		WithPollInterval(5*time.Millisecond),
		WithTimeout(200*time.Millisecond),
		WithCallbackSender(cb),
	)

	event := checkoutEvent()
	resp, err := processor.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, resp.Status)
	require.Equal(t, sampleEcommerceID, resp.EcommerceID)
	require.Equal(t, "REF-1", resp.ReferenceNumber)
	require.Equal(t, event.OrderID, resp.Request.OrderID)
	require.Equal(t, athmovil.PollOptions{Interval: 5 * time.Millisecond, MaxWait: 200 * time.Millisecond}, gotOpts)
	require.Len(t, cb.calls, 1)
	require.Equal(t, EventCheckoutCompleted, cb.calls[0].eventType)
	require.Equal(t, resp, cb.calls[0].data)
}

func TestCheckoutEventDecodesLambdaInput(t *testing.T) {
	var event CheckoutEvent
	require.NoError(t, json.Unmarshal([]byte(`{
		"orderId": "order-7",
		"total": 5.00,
		"phoneNumber": "7875551234",
		"metadata1": "order-7",
		"items": [{"name": "T", "description": "T", "quantity": "1", "price": "5.00"}]
	}`), &event))
	require.Equal(t, "order-7", event.OrderID)

	var got athmovil.PaymentRequest
	client := &fakeClient{
		processFn: func(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error) {
			got = req
			return &athmovil.TransactionResponse{Data: &athmovil.TransactionData{EcommerceID: sampleEcommerceID}}, nil
		},
	}

	resp, err := NewCheckoutProcessor(client).Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, resp.Status)
	require.Equal(t, "order-7", resp.Request.OrderID)

	payload, err := athmovil.NewPaymentPayload("test_public_token_123456789", got, false)
	require.NoError(t, err)
	require.Equal(t, "5.00", payload.Total)
	require.Equal(t, "1", payload.Items[0].Quantity)
	require.Equal(t, "order-7", payload.Metadata1)
}

func TestCheckoutProcessorHandleTimeout(t *testing.T) {
	client := &fakeClient{
		processFn: func(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error) {
			return nil, &athmovil.Error{Kind: athmovil.KindTimeout, Message: "Timeout waiting for payment confirmation", EcommerceID: sampleEcommerceID}
		},
	}

	cb := &fakeCallback{}
	processor := NewCheckoutProcessor(client, WithTimeout(2*time.Minute), WithCallbackSender(cb))

	resp, err := processor.Handle(context.Background(), checkoutEvent())
	require.NoError(t, err)
	require.Equal(t, StatusFailed, resp.Status)
	require.Equal(t, sampleEcommerceID, resp.EcommerceID)
	require.Equal(t, athmovil.KindTimeout, resp.ErrorKind)
	require.Equal(t, "payment not confirmed within 2m0s", resp.Message)
	require.Len(t, cb.calls, 1)
	require.Equal(t, EventCheckoutFailed, cb.calls[0].eventType)
}

func TestCheckoutProcessorHandleCancelled(t *testing.T) {
	client := &fakeClient{
		processFn: func(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error) {
			return nil, &athmovil.Error{
				Kind:        athmovil.KindTransaction,
				Message:     "Payment was cancelled",
				EcommerceID: sampleEcommerceID,
				Err:         athmovil.ErrPaymentCancelled,
			}
		},
	}

	cb := &fakeCallback{err: errors.New("downstream unavailable")}
	processor := NewCheckoutProcessor(client, WithCallbackSender(cb))

	resp, err := processor.Handle(context.Background(), checkoutEvent())
	require.NoError(t, err, "callback failures are logged, not returned")
	require.Equal(t, StatusFailed, resp.Status)
	require.Equal(t, "payment was cancelled by the customer", resp.Message)
	require.Len(t, cb.calls, 1)
}

func TestCheckoutProcessorHandleValidationError(t *testing.T) {
	client := &fakeClient{
		processFn: func(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error) {
			return nil, &athmovil.Error{Kind: athmovil.KindValidation, Message: "invalid payment request: total: amount is required"}
		},
	}

	cb := &fakeCallback{}
	processor := NewCheckoutProcessor(client, WithCallbackSender(cb))

	_, err := processor.Handle(context.Background(), CheckoutEvent{})
	require.ErrorIs(t, err, athmovil.ErrValidation)
	require.Empty(t, cb.calls)
}

func TestCheckoutProcessorHandleNetworkError(t *testing.T) {
	client := &fakeClient{
		processFn: func(ctx context.Context, req athmovil.PaymentRequest, opts athmovil.PollOptions) (*athmovil.TransactionResponse, error) {
			return nil, &athmovil.Error{Kind: athmovil.KindNetwork, Message: "network error after 3 retries", EcommerceID: sampleEcommerceID}
		},
	}

	processor := NewCheckoutProcessor(client)

	_, err := processor.Handle(context.Background(), checkoutEvent())
	require.ErrorIs(t, err, athmovil.ErrNetwork)
	require.ErrorContains(t, err, "checkout failed")
}
