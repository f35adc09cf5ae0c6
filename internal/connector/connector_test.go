package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging/logtest"
)

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestSendPaymentDetails_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/sid-1/messages", r.URL.Path)

		var msg domain.PaymentDetailsMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "self-account", msg.IrohaAccountID)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.PaymentDetailsMessage{IrohaAccountID: "peer-account"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logtest.New())

	resp, err := c.SendPaymentDetails(context.Background(), "sid-1", domain.PaymentDetailsMessage{IrohaAccountID: "self-account"})
	require.NoError(t, err)
	assert.Equal(t, "peer-account", resp.IrohaAccountID)
}

func TestNotifySettlement_RetriesOn5xxThenSucceeds(t *testing.T) {
	var attempts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logtest.New())

	err := c.NotifySettlement(context.Background(), "sid-1", domain.SettlementQuantity{Amount: amount(2500), Scale: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestNotifySettlement_4xxIsPermanent(t *testing.T) {
	var attempts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, logtest.New())

	err := c.NotifySettlement(context.Background(), "sid-1", domain.SettlementQuantity{Amount: amount(2500), Scale: 2})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "a 4xx response must not be retried")
}
