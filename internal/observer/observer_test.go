package observer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/ledger"
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

type fakeNotifier struct {
	calls []domain.SettlementQuantity
	fail  bool
}

func (n *fakeNotifier) NotifySettlement(_ context.Context, _ domain.SettlementAccountID, qty domain.SettlementQuantity) error {
	if n.fail {
		return errors.New("connector unreachable")
	}

	n.calls = append(n.calls, qty)

	return nil
}

func newObserver(t *testing.T) (*Observer, *storetest.Fake, *ledgertest.Fake, *fakeNotifier) {
	t.Helper()

	st := storetest.New()
	lc := ledgertest.New()
	notifier := &fakeNotifier{}

	require.NoError(t, st.SavePeerLedgerAccount(context.Background(), sid, peer))

	return New(st, lc, notifier, self, asset, 2, time.Second, logtest.New()), st, lc, notifier
}

func settlementTx(hash string) ledger.Transaction {
	return ledger.Transaction{
		Hash: hash,
		Transfers: []ledger.TransferCommand{
			{
				Src:    peer,
				Dst:    self,
				Asset:  asset,
				Amount: decimal.RequireFromString("2500"),
				Memo:   domain.SettlementMemo,
			},
		},
	}
}

func TestTick_NotifiesAndAdvancesCursor(t *testing.T) {
	o, st, lc, notifier := newObserver(t)
	lc.Transactions = []ledger.Transaction{settlementTx("tx-1")}

	require.NoError(t, o.Tick(context.Background()))

	require.Len(t, notifier.calls, 1)
	assert.True(t, notifier.calls[0].Amount.Equal(decimal.RequireFromString("2500")))
	assert.Equal(t, 2, notifier.calls[0].Scale)

	cursor, err := st.GetLastCheckedTxHash(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, "tx-1", *cursor)

	checked, err := st.WasTxChecked(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.True(t, checked)
}

func TestTick_IgnoresTransferWithoutSettlementMemo(t *testing.T) {
	o, _, lc, notifier := newObserver(t)
	tx := settlementTx("tx-1")
	tx.Transfers[0].Memo = "not a settlement"
	lc.Transactions = []ledger.Transaction{tx}

	require.NoError(t, o.Tick(context.Background()))

	assert.Empty(t, notifier.calls)
}

func TestTick_IgnoresTransferFromUnknownPeer(t *testing.T) {
	o, _, lc, notifier := newObserver(t)
	tx := settlementTx("tx-1")
	tx.Transfers[0].Src = domain.LedgerAccountID("stranger")
	lc.Transactions = []ledger.Transaction{tx}

	require.NoError(t, o.Tick(context.Background()))

	assert.Empty(t, notifier.calls)
}

func TestTick_NotificationFailureMovesToUncheckedAndDoesNotAdvanceCursor(t *testing.T) {
	o, st, lc, notifier := newObserver(t)
	notifier.fail = true
	lc.Transactions = []ledger.Transaction{settlementTx("tx-1")}

	require.NoError(t, o.Tick(context.Background()))

	cursor, err := st.GetLastCheckedTxHash(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cursor, "a failed notification must not advance the cursor")

	hashes, err := st.GetUncheckedTxHashes(context.Background())
	require.NoError(t, err)
	assert.Contains(t, hashes, "tx-1")
}

func TestTick_RetriesUncheckedTxAndClearsItOnSuccess(t *testing.T) {
	o, st, lc, notifier := newObserver(t)
	require.NoError(t, st.SaveUncheckedTx(context.Background(), "tx-1"))
	lc.TransactionsByHash["tx-1"] = settlementTx("tx-1")

	require.NoError(t, o.Tick(context.Background()))

	require.Len(t, notifier.calls, 1)

	hashes, err := st.GetUncheckedTxHashes(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, hashes, "tx-1")

	cursor, err := st.GetLastCheckedTxHash(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cursor, "the unchecked-retry path must never advance the cursor")
}

func TestTick_AlreadyCheckedTxIsSkipped(t *testing.T) {
	o, st, lc, notifier := newObserver(t)
	require.NoError(t, st.SaveCheckedTx(context.Background(), "tx-1"))
	lc.Transactions = []ledger.Transaction{settlementTx("tx-1")}

	require.NoError(t, o.Tick(context.Background()))

	assert.Empty(t, notifier.calls)
}
