// Package connector is the outbound HTTP client to the local Interledger
// connector: shipping PaymentDetailsMessage during account setup (spec
// §4.F) and notifying of incoming settlements (spec §4.E). Both calls are
// retried with an exponential backoff policy via cenkalti/backoff/v4.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging"
)

// Client talks to the connector's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// New builds a Client against the connector's base URL.
func New(baseURL string, timeout time.Duration, logger logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// notificationBackoff matches spec §4.E exactly: initial 500ms, max 6s,
// max elapsed 15min, multiplier 1.5, randomization 0.5.
func notificationBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 6 * time.Second
	b.MaxElapsedTime = 15 * time.Minute
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.5

	return b
}

// SendPaymentDetails posts our PaymentDetailsMessage to the connector
// during account setup (spec §4.F) and parses the peer's response.
func (c *Client) SendPaymentDetails(ctx context.Context, sid domain.SettlementAccountID, msg domain.PaymentDetailsMessage) (domain.PaymentDetailsMessage, error) {
	path := fmt.Sprintf("/accounts/%s/messages", sid)

	var resp domain.PaymentDetailsMessage

	op := func() error {
		status, body, err := c.postJSON(ctx, path, nil, msg)
		if err != nil {
			return err
		}

		if status >= 500 {
			return fmt.Errorf("connector returned status %d", status)
		}

		if status >= 400 {
			return backoff.Permanent(fmt.Errorf("connector returned status %d", status))
		}

		return json.Unmarshal(body, &resp)
	}

	if err := backoff.Retry(op, backoff.WithContext(notificationBackoff(), ctx)); err != nil {
		return domain.PaymentDetailsMessage{}, fmt.Errorf("send payment details: %w", err)
	}

	return resp, nil
}

// NotifySettlement posts a SettlementQuantity notification of an incoming
// settlement, with a fresh idempotency key per spec §4.E. Transport errors
// and 5xx responses are retried until the 15-minute retry budget is
// exhausted; a 4xx response is returned as an error without retrying.
func (c *Client) NotifySettlement(ctx context.Context, sid domain.SettlementAccountID, qty domain.SettlementQuantity) error {
	path := fmt.Sprintf("/accounts/%s/settlements", sid)
	idempotencyKey := uuid.New().String()

	headers := map[string]string{"Idempotency-Key": idempotencyKey}

	op := func() error {
		status, _, err := c.postJSON(ctx, path, headers, qty)
		if err != nil {
			c.logger.Warnf("settlement notification transport error, retrying: %v", err)
			return err
		}

		if status >= 500 {
			return fmt.Errorf("connector returned status %d", status)
		}

		if status >= 400 {
			return backoff.Permanent(fmt.Errorf("connector returned status %d", status))
		}

		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(notificationBackoff(), ctx)); err != nil {
		return fmt.Errorf("notify settlement: %w", err)
	}

	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, headers map[string]string, body any) (int, []byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, nil, backoff.Permanent(fmt.Errorf("marshal body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, nil, backoff.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, data, nil
}
