// Package storetest provides an in-memory store.Store for unit tests, so
// the engine, observer and control-surface test suites can exercise the
// persistence contract without a real Redis instance.
package storetest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/httpserver/apperr"
)

// Fake is an in-memory store.Store, safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	peer        map[domain.SettlementAccountID]domain.LedgerAccountID
	peerReverse map[domain.LedgerAccountID]domain.SettlementAccountID
	exists      map[domain.SettlementAccountID]bool
	requests    map[string]int
	leftover    map[domain.SettlementAccountID]decimal.Decimal
	cursor      *string
	checkedTx   map[string]bool
	uncheckedTx map[string]bool
}

// New builds an empty Fake.
func New() *Fake {
	return &Fake{
		peer:        map[domain.SettlementAccountID]domain.LedgerAccountID{},
		peerReverse: map[domain.LedgerAccountID]domain.SettlementAccountID{},
		exists:      map[domain.SettlementAccountID]bool{},
		requests:    map[string]int{},
		leftover:    map[domain.SettlementAccountID]decimal.Decimal{},
		checkedTx:   map[string]bool{},
		uncheckedTx: map[string]bool{},
	}
}

func (f *Fake) GetPeerLedgerAccount(_ context.Context, sid domain.SettlementAccountID) (*domain.LedgerAccountID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	laid, ok := f.peer[sid]
	if !ok {
		return nil, nil
	}

	return &laid, nil
}

func (f *Fake) SavePeerLedgerAccount(_ context.Context, sid domain.SettlementAccountID, laid domain.LedgerAccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.peer[sid]; ok && existing != laid {
		return apperr.ConflictError{Entity: "settlement account", Message: "peer ledger account cannot be reassigned"}
	}

	f.peer[sid] = laid
	f.peerReverse[laid] = sid

	return nil
}

func (f *Fake) ReverseLookupSettlementAccount(_ context.Context, laid domain.LedgerAccountID) (*domain.SettlementAccountID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sid, ok := f.peerReverse[laid]
	if !ok {
		return nil, nil
	}

	return &sid, nil
}

func (f *Fake) ExistsSettlementAccount(_ context.Context, sid domain.SettlementAccountID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.exists[sid], nil
}

func (f *Fake) CreateSettlementAccount(_ context.Context, sid domain.SettlementAccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.exists[sid] = true

	return nil
}

func (f *Fake) DeleteSettlementAccount(_ context.Context, sid domain.SettlementAccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if laid, ok := f.peer[sid]; ok {
		delete(f.peerReverse, laid)
	}

	delete(f.peer, sid)
	delete(f.exists, sid)
	delete(f.leftover, sid)

	return nil
}

func (f *Fake) GetRequestStatus(_ context.Context, key string) (*int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	status, ok := f.requests[key]
	if !ok {
		return nil, nil
	}

	return &status, nil
}

func (f *Fake) SaveRequestStatus(_ context.Context, key string, status int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests[key] = status

	return nil
}

func (f *Fake) GetLeftover(_ context.Context, sid domain.SettlementAccountID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.leftover[sid]
	if !ok {
		return decimal.Zero, nil
	}

	return v, nil
}

func (f *Fake) SaveLeftover(_ context.Context, sid domain.SettlementAccountID, value decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.leftover[sid] = value

	return nil
}

func (f *Fake) GetLastCheckedTxHash(_ context.Context) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cursor, nil
}

func (f *Fake) SetLastCheckedTxHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := hash
	f.cursor = &h

	return nil
}

func (f *Fake) WasTxChecked(_ context.Context, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.checkedTx[hash], nil
}

func (f *Fake) SaveCheckedTx(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.checkedTx[hash] = true

	return nil
}

func (f *Fake) SaveUncheckedTx(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.uncheckedTx[hash] = true

	return nil
}

func (f *Fake) GetUncheckedTxHashes(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hashes := make([]string, 0, len(f.uncheckedTx))
	for h := range f.uncheckedTx {
		hashes = append(hashes, h)
	}

	return hashes, nil
}

func (f *Fake) RemoveUncheckedTx(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.uncheckedTx, hash)

	return nil
}
