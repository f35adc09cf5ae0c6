// Package ledgertest provides a scriptable fake ledger.Client for unit
// tests, so the engine and observer test suites can exercise retry,
// pagination and classification behavior without a real ledger gateway.
package ledgertest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/ledger"
)

// Fake is a scriptable ledger.Client.
type Fake struct {
	mu sync.Mutex

	GetAccountErr error

	// SubmitTransferFailures is decremented on each SubmitTransfer call
	// that should fail before one succeeds; errors returned are
	// SubmitTransferErr.
	SubmitTransferFailures int
	SubmitTransferErr      error
	Transfers              []SubmittedTransfer

	Transactions       []ledger.Transaction
	TransactionsByHash map[string]ledger.Transaction
}

// SubmittedTransfer records one call to SubmitTransfer.
type SubmittedTransfer struct {
	From, To domain.LedgerAccountID
	Asset    domain.AssetID
	Memo     string
	Amount   decimal.Decimal
}

func New() *Fake {
	return &Fake{TransactionsByHash: map[string]ledger.Transaction{}}
}

func (f *Fake) GetAccount(_ context.Context, _ domain.LedgerAccountID) error {
	return f.GetAccountErr
}

func (f *Fake) SubmitTransfer(_ context.Context, from, to domain.LedgerAccountID, asset domain.AssetID, memo string, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SubmitTransferFailures > 0 {
		f.SubmitTransferFailures--
		return f.SubmitTransferErr
	}

	f.Transfers = append(f.Transfers, SubmittedTransfer{From: from, To: to, Asset: asset, Memo: memo, Amount: amount})

	return nil
}

func (f *Fake) ListAccountAssetTransactions(_ context.Context, _ domain.LedgerAccountID, _ domain.AssetID, pageSize int, cursor *string) ([]ledger.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := 0

	if cursor != nil {
		for i, tx := range f.Transactions {
			if tx.Hash == *cursor {
				start = i + 1
				break
			}
		}
	}

	end := start + pageSize
	if end > len(f.Transactions) {
		end = len(f.Transactions)
	}

	if start > len(f.Transactions) {
		start = len(f.Transactions)
	}

	out := make([]ledger.Transaction, len(f.Transactions[start:end]))
	copy(out, f.Transactions[start:end])

	return out, nil
}

func (f *Fake) ListTransactionsByHashes(_ context.Context, hashes []string) ([]ledger.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]ledger.Transaction, 0, len(hashes))

	for _, h := range hashes {
		if tx, ok := f.TransactionsByHash[h]; ok {
			out = append(out, tx)
		}
	}

	return out, nil
}
