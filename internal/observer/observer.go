// Package observer implements the incoming observer, spec §4.E: a
// periodic task that pulls new ledger transactions, classifies
// settlement-relevant transfers, notifies the connector, and retries
// transient notification failures via the unchecked-tx set.
//
// Ticks run on a fixed period and never overlap: if a tick is still
// running when the next would fire, the next is skipped and picked up on
// the following period.
package observer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/ledger"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging"
	"github.com/yurivin/ilp-iroha-settlement/internal/store"
)

// pageSize is the spec-fixed page size for the forward-paging query (spec
// §4.E: "PAGE_SIZE=10").
const pageSize = 10

// Notifier delivers a settlement notification to the connector, retrying
// transient failures per its own policy. Implemented by
// internal/connector.Client.NotifySettlement.
type Notifier interface {
	NotifySettlement(ctx context.Context, sid domain.SettlementAccountID, qty domain.SettlementQuantity) error
}

// Observer runs the incoming-ledger polling loop.
type Observer struct {
	store      store.Store
	ledger     ledger.Client
	notifier   Notifier
	self       domain.LedgerAccountID
	asset      domain.AssetID
	assetScale int
	period     time.Duration
	logger     logging.Logger

	ticking atomic.Bool
}

// New builds an Observer.
func New(st store.Store, lc ledger.Client, notifier Notifier, self domain.LedgerAccountID, asset domain.AssetID, assetScale int, period time.Duration, logger logging.Logger) *Observer {
	return &Observer{
		store:      st,
		ledger:     lc,
		notifier:   notifier,
		self:       self,
		asset:      asset,
		assetScale: assetScale,
		period:     period,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled, firing Tick on a fixed period. Ticks
// never overlap: if a tick is still running when the next would fire, the
// next is skipped (coalesced), per spec §5.
func (o *Observer) Run(ctx context.Context) {
	ticker := time.NewTicker(o.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !o.ticking.CompareAndSwap(false, true) {
				o.logger.Debug("observer tick skipped, previous tick still running")
				continue
			}

			func() {
				defer o.ticking.Store(false)

				if err := o.Tick(ctx); err != nil {
					o.logger.Errorf("observer tick failed: %v", err)
				}
			}()
		}
	}
}

// Tick implements one iteration of spec §4.E's three steps.
func (o *Observer) Tick(ctx context.Context) error {
	cursor, err := o.store.GetLastCheckedTxHash(ctx)
	if err != nil {
		return err
	}

	newTxs, err := o.ledger.ListAccountAssetTransactions(ctx, o.self, o.asset, pageSize, cursor)
	if err != nil {
		return err
	}

	for _, tx := range newTxs {
		if err := o.process(ctx, tx, true); err != nil {
			o.logger.Errorf("failed to process tx %s: %v", tx.Hash, err)
		}
	}

	uncheckedHashes, err := o.store.GetUncheckedTxHashes(ctx)
	if err != nil {
		return err
	}

	if len(uncheckedHashes) == 0 {
		return nil
	}

	uncheckedTxs, err := o.ledger.ListTransactionsByHashes(ctx, uncheckedHashes)
	if err != nil {
		return err
	}

	for _, tx := range uncheckedTxs {
		if err := o.process(ctx, tx, false); err != nil {
			o.logger.Errorf("failed to process unchecked tx %s: %v", tx.Hash, err)
		}
	}

	return nil
}

// process implements spec §4.E's process(tx). fromForwardPage indicates
// whether tx arrived via the forward-paging path (eligible to advance the
// cursor) or the unchecked-retry path (never advances the cursor).
func (o *Observer) process(ctx context.Context, tx ledger.Transaction, fromForwardPage bool) error {
	checked, err := o.store.WasTxChecked(ctx, tx.Hash)
	if err != nil {
		return err
	}

	if checked {
		return nil
	}

	allDelivered := true

	for _, transfer := range tx.Transfers {
		if transfer.Memo != domain.SettlementMemo {
			continue
		}

		sid, err := o.store.ReverseLookupSettlementAccount(ctx, transfer.Src)
		if err != nil {
			return err
		}

		if sid == nil || transfer.Dst != o.self || transfer.Asset != o.asset {
			// Not sent by a known peer, or not addressed to us, or a
			// different asset: not our notification
			// to make (spec §4.E classification rationale).
			continue
		}

		qty := domain.SettlementQuantity{
			Amount: transfer.Amount,
			Scale:  o.assetScale,
		}

		if err := o.notifier.NotifySettlement(ctx, *sid, qty); err != nil {
			o.logger.Warnf("settlement notification failed for tx %s: %v", tx.Hash, err)
			allDelivered = false

			break
		}
	}

	if !allDelivered {
		if err := o.store.SaveUncheckedTx(ctx, tx.Hash); err != nil {
			return err
		}

		return nil
	}

	if err := o.store.SaveCheckedTx(ctx, tx.Hash); err != nil {
		return err
	}

	if !fromForwardPage {
		if err := o.store.RemoveUncheckedTx(ctx, tx.Hash); err != nil {
			return err
		}

		return nil
	}

	return o.store.SetLastCheckedTxHash(ctx, tx.Hash)
}
