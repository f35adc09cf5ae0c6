// Package ledger abstracts the external permissioned ledger (spec §4.C).
// This engine never speaks the ledger's wire protocol directly; it only
// depends on this interface, which a concrete adapter (package httpclient)
// implements against whatever transport the ledger exposes.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
)

// TransferCommand is one transfer-asset command inside a ledger
// transaction.
type TransferCommand struct {
	Src    domain.LedgerAccountID
	Dst    domain.LedgerAccountID
	Asset  domain.AssetID
	Amount decimal.Decimal // integer units at the ledger's asset scale
	Memo   string
}

// Transaction is a committed ledger transaction as exposed by the history
// query endpoints (spec §4.C).
type Transaction struct {
	Hash     string
	Transfers []TransferCommand
}

// Error is raised by Client methods on any terminal or transient failure
// observable during a ledger call: unreceived, expired, unrecognized
// status, or a transport exception (spec §4.C).
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client is the contract this engine consumes from the ledger client
// library (spec §4.C). It is the only place the ledger's wire protocol is
// referenced from.
type Client interface {
	// GetAccount is a liveness/auth probe, called once at startup. Any
	// failure here is fatal to the process (spec §4.C).
	GetAccount(ctx context.Context, account domain.LedgerAccountID) error

	// SubmitTransfer is synchronous to commit: it returns normally once the
	// transfer has committed, or returns an *Error on any terminal or
	// transient failure.
	SubmitTransfer(ctx context.Context, from, to domain.LedgerAccountID, asset domain.AssetID, memo string, amount decimal.Decimal) error

	// ListAccountAssetTransactions returns transactions involving account
	// and asset that occur strictly after cursor, oldest first, up to
	// pageSize entries. A nil cursor means "from the beginning".
	ListAccountAssetTransactions(ctx context.Context, account domain.LedgerAccountID, asset domain.AssetID, pageSize int, cursor *string) ([]Transaction, error)

	// ListTransactionsByHashes fetches transactions by hash, in any order.
	ListTransactionsByHashes(ctx context.Context, hashes []string) ([]Transaction, error)
}
