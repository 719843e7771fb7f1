package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPSCallbackSenderSignsPayload(t *testing.T) {
	var (
		gotHeader http.Header
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender, err := NewHTTPSCallbackSender(srv.URL, "s3cret", srv.Client())
	require.NoError(t, err)
	sender.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, sender.Send(context.Background(), EventCheckoutCompleted, map[string]string{"status": "completed"}))

	var event CallbackEvent
	require.NoError(t, json.Unmarshal(gotBody, &event))
	require.Equal(t, EventCheckoutCompleted, event.Type)
	require.NotEmpty(t, event.ID)
	require.Equal(t, event.ID, gotHeader.Get("X-Callback-ID"))
	require.Equal(t, "application/json", gotHeader.Get("Content-Type"))

	want := "t=1700000000,v1=" + Sign("s3cret", "1700000000", gotBody)
	require.Equal(t, want, gotHeader.Get(SignatureHeader))
}

func TestHTTPSCallbackSenderWithoutSecret(t *testing.T) {
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
	}))
	defer srv.Close()

	sender, err := NewHTTPSCallbackSender(srv.URL, "", nil)
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), EventWebhookReceived, struct{}{}))
	require.Empty(t, gotHeader.Get(SignatureHeader))
}

func TestHTTPSCallbackSenderReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	sender, err := NewHTTPSCallbackSender(srv.URL, "", nil)
	require.NoError(t, err)

	err = sender.Send(context.Background(), EventCheckoutFailed, struct{}{})
	require.EqualError(t, err, "callback endpoint returned 502: nope")
}

func TestNewHTTPSCallbackSenderRequiresURL(t *testing.T) {
	_, err := NewHTTPSCallbackSender("  ", "", nil)
	require.EqualError(t, err, "callback URL is required")
}

func TestSignIsStable(t *testing.T) {
	a := Sign("key", "1", []byte(`{}`))
	require.Len(t, a, 64)
	require.Equal(t, a, Sign("key", "1", []byte(`{}`)))
	require.NotEqual(t, a, Sign("other", "1", []byte(`{}`)))
}
