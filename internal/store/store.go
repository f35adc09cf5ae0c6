// Package store defines the persistent key-value contract described in
// spec §4.A. It owns no business logic: every operation is a direct,
// individually-atomic read or write against the six key-spaces the engine
// needs (peer identity, idempotency ledger, leftovers, ledger cursor,
// seen-tx set, unchecked-tx set).
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
)

// Store is the persistence contract required by the engine, the observer
// and the control surface. Implementations must be safe for concurrent
// use; individual operations are atomic but the store provides no
// transactions spanning multiple operations (spec §5).
type Store interface {
	// GetPeerLedgerAccount returns the peer's ledger account id, or nil if
	// the handshake has not completed yet.
	GetPeerLedgerAccount(ctx context.Context, sid domain.SettlementAccountID) (*domain.LedgerAccountID, error)

	// SavePeerLedgerAccount persists the peer mapping. Overwrite is
	// permitted only if the existing value is absent or equal; any attempt
	// to reassign a sid to a different ledger account is rejected, since no
	// SettlementAccountID may ever be associated with more than one
	// LedgerAccountID over its lifetime (spec §3 invariant).
	SavePeerLedgerAccount(ctx context.Context, sid domain.SettlementAccountID, laid domain.LedgerAccountID) error

	// ReverseLookupSettlementAccount returns the sid whose peer ledger
	// account is laid, if any. Maintained alongside SavePeerLedgerAccount
	// so the observer can classify incoming transfers by source (spec
	// §4.E).
	ReverseLookupSettlementAccount(ctx context.Context, laid domain.LedgerAccountID) (*domain.SettlementAccountID, error)

	// ExistsSettlementAccount reports whether an account-setup request has
	// been recorded for sid, independent of whether the peer handshake has
	// completed.
	ExistsSettlementAccount(ctx context.Context, sid domain.SettlementAccountID) (bool, error)

	// CreateSettlementAccount records that sid now exists (account-setup),
	// without yet knowing its peer ledger account.
	CreateSettlementAccount(ctx context.Context, sid domain.SettlementAccountID) error

	// DeleteSettlementAccount removes the peer mapping, its reverse index
	// entry and the associated leftover. Idempotency records and the
	// transaction sets are global to the instance and are untouched.
	DeleteSettlementAccount(ctx context.Context, sid domain.SettlementAccountID) error

	// GetRequestStatus returns the stored HTTP status for an idempotency
	// key, or nil if none has been recorded yet.
	GetRequestStatus(ctx context.Context, key string) (*int, error)

	// SaveRequestStatus records the terminal HTTP status for an
	// idempotency key. Callers MUST call this at most once per key, and
	// only after the corresponding ledger effect has been durably
	// committed or found unnecessary; when retries are exhausted no status
	// is recorded, so the request stays replayable (spec §7).
	SaveRequestStatus(ctx context.Context, key string, status int) error

	// GetLeftover returns the stored leftover for sid, or decimal.Zero if
	// none is stored.
	GetLeftover(ctx context.Context, sid domain.SettlementAccountID) (decimal.Decimal, error)

	// SaveLeftover overwrites the stored leftover for sid.
	SaveLeftover(ctx context.Context, sid domain.SettlementAccountID, value decimal.Decimal) error

	// GetLastCheckedTxHash returns the observer's cursor, or nil if unset
	// (meaning "from the beginning").
	GetLastCheckedTxHash(ctx context.Context) (*string, error)

	// SetLastCheckedTxHash advances the observer's cursor.
	SetLastCheckedTxHash(ctx context.Context, hash string) error

	// WasTxChecked reports whether hash is already in the seen-tx set.
	WasTxChecked(ctx context.Context, hash string) (bool, error)

	// SaveCheckedTx moves hash into the seen-tx set.
	SaveCheckedTx(ctx context.Context, hash string) error

	// SaveUncheckedTx adds hash to the unchecked-tx set, for retry on the
	// next observer tick.
	SaveUncheckedTx(ctx context.Context, hash string) error

	// GetUncheckedTxHashes returns the current contents of the
	// unchecked-tx set.
	GetUncheckedTxHashes(ctx context.Context) ([]string, error)

	// RemoveUncheckedTx removes hash from the unchecked-tx set (called once
	// it has been successfully checked via the unchecked-retry path).
	RemoveUncheckedTx(ctx context.Context, hash string) error
}
