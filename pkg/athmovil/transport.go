package athmovil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// call sends one API request and decodes the success body into out. Transport
// failures are retried with exponential backoff; HTTP responses never are.
func (c *Client) call(ctx context.Context, operation, method, url, bearer string, payload, out any) (err error) {
	started := time.Now()
	defer func() { c.metrics.observe(operation, started, err) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", operation, err)
	}

	status, data, err := c.doRequest(ctx, operation, method, url, bearer, body)
	if err != nil {
		return err
	}
	return parseResponse(status, data, out)
}

// doRequest performs the HTTP exchange with retries and returns the raw response.
func (c *Client) doRequest(ctx context.Context, operation, method, url, bearer string, body []byte) (int, []byte, error) {
	var (
		status int
		data   []byte
	)

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		status = resp.StatusCode
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.metrics.retried(operation)
		c.logger.Warn("athmovil request failed, retrying",
			zap.String("operation", operation),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(attempt, c.newBackOff(ctx), notify); err != nil {
		return 0, nil, c.transportError(ctx, operation, err)
	}
	return status, data, nil
}

// newBackOff waits RetryBaseDelay * 2^n between attempts, without jitter.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryBaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = c.cfg.RetryBaseDelay << 10
	bo.MaxElapsedTime = 0
	bo.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries)), ctx)
}

func (c *Client) transportError(ctx context.Context, operation string, err error) *Error {
	c.logger.Error("athmovil request failed",
		zap.String("operation", operation),
		zap.Int("max_retries", c.cfg.MaxRetries),
		zap.Error(err),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		kind := KindNetwork
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return newError(kind, operation+" aborted: "+ctxErr.Error(), ctxErr)
	}
	if isTimeout(err) {
		return newError(KindTimeout, fmt.Sprintf("request timed out after %d retries", c.cfg.MaxRetries), err)
	}
	return newError(KindNetwork, fmt.Sprintf("network error after %d retries: %v", c.cfg.MaxRetries, err), err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// parseResponse maps a raw response to out or to a classified *Error. Any status of
// 400 or above, or a body with "status": "error", is an API error.
func parseResponse(statusCode int, data []byte, out any) error {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return malformed(statusCode, err)
	}

	if statusCode >= http.StatusBadRequest || body["status"] == "error" {
		return Classify(body, statusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return malformed(statusCode, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
