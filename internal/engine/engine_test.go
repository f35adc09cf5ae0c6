package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/ledger/ledgertest"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging/logtest"
	"github.com/yurivin/ilp-iroha-settlement/internal/store/storetest"
)

const (
	self  = domain.LedgerAccountID("self-ledger-account")
	peer  = domain.LedgerAccountID("peer-ledger-account")
	sid   = domain.SettlementAccountID("sid-1")
	asset = domain.AssetID("usd#2")
)

func newEngine(t *testing.T) (*Engine, *storetest.Fake, *ledgertest.Fake) {
	t.Helper()

	st := storetest.New()
	lc := ledgertest.New()

	require.NoError(t, st.SavePeerLedgerAccount(context.Background(), sid, peer))

	return New(st, lc, self, asset, 2, logtest.New()), st, lc
}

func TestSettle_HappyPath(t *testing.T) {
	e, st, lc := newEngine(t)

	status, err := e.Settle(context.Background(), sid, "idem-1", decimal.RequireFromString("100"), 2)
	require.NoError(t, err)
	assert.Equal(t, 201, status)

	require.Len(t, lc.Transfers, 1)
	assert.True(t, lc.Transfers[0].Amount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, self, lc.Transfers[0].From)
	assert.Equal(t, peer, lc.Transfers[0].To)
	assert.Equal(t, domain.SettlementMemo, lc.Transfers[0].Memo)

	leftover, err := st.GetLeftover(context.Background(), sid)
	require.NoError(t, err)
	assert.True(t, leftover.IsZero())
}

func TestSettle_PrecisionLossAccumulatesLeftover(t *testing.T) {
	e, st, lc := newEngine(t)

	// incoming scale 3, engine scale 2: 99 at scale 3 -> representable 90,
	// leftover 9 (the spec's worked example).
	status, err := e.Settle(context.Background(), sid, "idem-1", decimal.RequireFromString("99"), 3)
	require.NoError(t, err)
	assert.Equal(t, 201, status)

	require.Len(t, lc.Transfers, 1)
	assert.True(t, lc.Transfers[0].Amount.Equal(decimal.RequireFromString("9")),
		"90 representable units at scale 3 rescale to 9 integer units at scale 2")

	leftover, err := st.GetLeftover(context.Background(), sid)
	require.NoError(t, err)
	assert.True(t, leftover.Equal(decimal.RequireFromString("9")))

	// A second call combines the stored leftover with the new incoming
	// amount before splitting again.
	status, err = e.Settle(context.Background(), sid, "idem-2", decimal.RequireFromString("1"), 3)
	require.NoError(t, err)
	assert.Equal(t, 201, status)

	require.Len(t, lc.Transfers, 2)
}

func TestSettle_IdempotentReplayDoesNotResubmit(t *testing.T) {
	e, _, lc := newEngine(t)

	status1, err := e.Settle(context.Background(), sid, "idem-1", decimal.RequireFromString("100"), 2)
	require.NoError(t, err)

	status2, err := e.Settle(context.Background(), sid, "idem-1", decimal.RequireFromString("999"), 2)
	require.NoError(t, err)

	assert.Equal(t, status1, status2)
	assert.Len(t, lc.Transfers, 1, "replay must not submit a second transfer")
}

func TestSettle_UnknownPeerFails(t *testing.T) {
	st := storetest.New()
	lc := ledgertest.New()
	e := New(st, lc, self, asset, 2, logtest.New())

	_, err := e.Settle(context.Background(), domain.SettlementAccountID("never-set-up"), "idem-1", decimal.RequireFromString("100"), 2)
	require.Error(t, err)
	assert.Empty(t, lc.Transfers)
}

func TestSettle_RetriesTransientTransferFailures(t *testing.T) {
	e, _, lc := newEngine(t)
	lc.SubmitTransferFailures = 2
	lc.SubmitTransferErr = errors.New("transient ledger error")

	status, err := e.Settle(context.Background(), sid, "idem-1", decimal.RequireFromString("100"), 2)
	require.NoError(t, err)
	assert.Equal(t, 201, status)
	assert.Len(t, lc.Transfers, 1, "the eventual success is recorded once")
}

func TestSettle_ZeroIntegerAmountSkipsTransfer(t *testing.T) {
	e, st, lc := newEngine(t)

	// At scale 2, an incoming amount smaller than one engine-scale unit at
	// the source's finer scale produces a zero integer transfer.
	status, err := e.Settle(context.Background(), sid, "idem-1", decimal.RequireFromString("1"), 3)
	require.NoError(t, err)
	assert.Equal(t, 201, status)
	assert.Empty(t, lc.Transfers, "no ledger effect for a zero integer amount")

	leftover, err := st.GetLeftover(context.Background(), sid)
	require.NoError(t, err)
	assert.True(t, leftover.Equal(decimal.RequireFromString("1")))
}
