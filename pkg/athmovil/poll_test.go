package athmovil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func transactionBody(status TransactionStatus) string {
	return `{"status":"success","data":{"ecommerceStatus":"` + string(status) + `","ecommerceId":"` + sampleEcommerceID + `","dailyTransactionId":12345,"transactionDate":""}}`
}

// recordSleeps replaces the client's sleep with one that returns immediately.
func recordSleeps(c *Client) *[]time.Duration {
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return &sleeps
}

func TestWaitForConfirmationPollsUntilConfirmed(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		status := StatusOpen
		if n > 3 {
			status = StatusConfirm
		}
		writeJSON(w, http.StatusOK, transactionBody(status))
	})
	c := newTestClient(t, srv.URL)
	sleeps := recordSleeps(c)

	resp, err := c.WaitForConfirmation(context.Background(), sampleEcommerceID, PollOptions{Interval: 3 * time.Second, MaxAttempts: 10})
	require.NoError(t, err)
	require.Equal(t, StatusConfirm, resp.Data.EcommerceStatus)
	require.Len(t, calls(), 4)
	require.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, *sleeps)
	for _, call := range calls() {
		require.Equal(t, FindPaymentPath, call.Path)
	}
}

func TestWaitForConfirmationAcceptsCompleted(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, transactionBody(StatusCompleted))
	})
	c := newTestClient(t, srv.URL)
	sleeps := recordSleeps(c)

	_, err := c.WaitForConfirmation(context.Background(), sampleEcommerceID, PollOptions{})
	require.NoError(t, err)
	require.Empty(t, *sleeps)
}

func TestWaitForConfirmationCancelled(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, transactionBody(StatusCancel))
	})
	c := newTestClient(t, srv.URL)
	recordSleeps(c)

	_, err := c.WaitForConfirmation(context.Background(), sampleEcommerceID, PollOptions{})
	require.ErrorIs(t, err, ErrTransaction)
	require.ErrorIs(t, err, ErrPaymentCancelled)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, sampleEcommerceID, apiErr.EcommerceID)
}

func TestWaitForConfirmationTimesOut(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, transactionBody(StatusOpen))
	})
	c := newTestClient(t, srv.URL)
	sleeps := recordSleeps(c)

	_, err := c.WaitForConfirmation(context.Background(), sampleEcommerceID, PollOptions{Interval: time.Second, MaxAttempts: 3})
	require.ErrorIs(t, err, ErrTimeout)
	require.Len(t, calls(), 3)
	require.Len(t, *sleeps, 2)
}

func TestWaitForConfirmationMaxWait(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, transactionBody(StatusOpen))
	})
	c := newTestClient(t, srv.URL)
	recordSleeps(c)

	_, err := c.WaitForConfirmation(context.Background(), sampleEcommerceID, PollOptions{Interval: 2 * time.Second, MaxWait: 10 * time.Second})
	require.ErrorIs(t, err, ErrTimeout)
	require.Len(t, calls(), 5)
}

func TestWaitForConfirmationStopsOnContext(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, transactionBody(StatusOpen))
	})
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.WaitForConfirmation(ctx, sampleEcommerceID, PollOptions{Interval: 5 * time.Millisecond})
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessCompletePayment(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		switch r.URL.Path {
		case PaymentPath:
			writeJSON(w, http.StatusOK, `{"status":"success","data":{"ecommerceId":"`+sampleEcommerceID+`","auth_token":"`+testAuthToken+`"}}`)
		case FindPaymentPath:
			writeJSON(w, http.StatusOK, transactionBody(StatusConfirm))
		case AuthorizationPath:
			writeJSON(w, http.StatusOK, transactionBody(StatusCompleted))
		}
	})
	c := newTestClient(t, srv.URL)
	recordSleeps(c)

	resp, err := c.ProcessCompletePayment(context.Background(), validPaymentRequest(), PollOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, resp.Data.EcommerceStatus)

	paths := make([]string, 0, 3)
	for _, call := range calls() {
		paths = append(paths, call.Path)
	}
	require.Equal(t, []string{PaymentPath, FindPaymentPath, AuthorizationPath}, paths)
}

func TestProcessCompletePaymentCancelsOnTimeout(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request, n int) {
		switch r.URL.Path {
		case PaymentPath:
			writeJSON(w, http.StatusOK, `{"status":"success","data":{"ecommerceId":"`+sampleEcommerceID+`","auth_token":"`+testAuthToken+`"}}`)
		case FindPaymentPath:
			writeJSON(w, http.StatusOK, transactionBody(StatusOpen))
		case CancelPath:
			writeJSON(w, http.StatusBadRequest, `{"status":"error","message":"cannot cancel","errorcode":"BTRA_0037"}`)
		}
	})
	c := newTestClient(t, srv.URL)
	recordSleeps(c)

	_, err := c.ProcessCompletePayment(context.Background(), validPaymentRequest(), PollOptions{Interval: time.Second, MaxWait: 2 * time.Second})
	require.ErrorIs(t, err, ErrTimeout, "a failed cancel must not mask the original error")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, sampleEcommerceID, apiErr.EcommerceID)

	recorded := calls()
	require.Equal(t, CancelPath, recorded[len(recorded)-1].Path)
}

func TestWithEcommerceIDFindsWrappedError(t *testing.T) {
	inner := &Error{Kind: KindNetwork, Message: "network error after 3 retries"}
	err := withEcommerceID(fmt.Errorf("authorize: %w", inner), sampleEcommerceID)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, sampleEcommerceID, apiErr.EcommerceID)
	require.ErrorIs(t, err, ErrNetwork)
	require.Empty(t, inner.EcommerceID, "the original error is left untouched")

	tagged := &Error{Kind: KindTimeout, EcommerceID: "other"}
	require.Same(t, tagged, withEcommerceID(tagged, sampleEcommerceID))
}
