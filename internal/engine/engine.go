// Package engine implements the outgoing settlement engine, spec §4.D: it
// accepts (peer_account, amount, idempotency_key) and drives a transfer to
// completion on the ledger, honoring idempotent replay, retries and
// precision loss.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/ledger"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/httpserver/apperr"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging"
	"github.com/yurivin/ilp-iroha-settlement/internal/store"
)

// Engine drives outgoing settlements. Per spec §5 it serializes the whole
// settle() critical section behind one mutex global to the engine; a
// per-sid keyed mutex would allow cross-sid parallelism but is not
// implemented here.
type Engine struct {
	store       store.Store
	ledger      ledger.Client
	self        domain.LedgerAccountID
	asset       domain.AssetID
	assetScale  int
	logger      logging.Logger

	mu sync.Mutex
}

// New builds an Engine.
func New(st store.Store, lc ledger.Client, self domain.LedgerAccountID, asset domain.AssetID, assetScale int, logger logging.Logger) *Engine {
	return &Engine{
		store:      st,
		ledger:     lc,
		self:       self,
		asset:      asset,
		assetScale: assetScale,
		logger:     logger,
	}
}

// transferRetryAttempts is the spec-fixed attempt count for submit_transfer
// (spec §4.D: "up to 10 attempts, exponential backoff starting at 1
// second, doubling").
const transferRetryAttempts = 10

func transferBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // bounded by attempt count below, not elapsed time

	return backoff.WithMaxRetries(b, transferRetryAttempts-1)
}

// Settle implements spec §4.D steps 1-9.
func (e *Engine) Settle(ctx context.Context, sid domain.SettlementAccountID, idempotencyKey string, incomingAmount decimal.Decimal, incomingScale int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.logger.WithFields("sid", sid, "idempotency_key", idempotencyKey)

	// Step 1: idempotent replay.
	status, err := e.store.GetRequestStatus(ctx, idempotencyKey)
	if err != nil {
		return 0, apperr.WrapInternal("failed to read idempotency record", err)
	}

	if status != nil {
		log.Infof("idempotency key already processed, replaying status %d", *status)
		return *status, nil
	}

	// Step 2: peer must be known.
	peer, err := e.store.GetPeerLedgerAccount(ctx, sid)
	if err != nil {
		return 0, apperr.WrapInternal("failed to read peer ledger account", err)
	}

	if peer == nil {
		log.Errorf("settlement requested before peer handshake completed")
		return 0, apperr.WrapInternal("peer identity not yet known", nil)
	}

	// Step 3-4: combine with stored leftover and compute the
	// representable/leftover split.
	leftover, err := e.store.GetLeftover(ctx, sid)
	if err != nil {
		return 0, apperr.WrapInternal("failed to read leftover", err)
	}

	representable, newLeftover := domain.ScaleWithPrecisionLoss(incomingAmount.Add(leftover), incomingScale, e.assetScale)

	// Step 5: rescale to an integer at the engine's asset scale.
	integerAmount := domain.RescaleToInteger(representable, incomingScale, e.assetScale)

	if integerAmount.IsZero() {
		if err := e.store.SaveLeftover(ctx, sid, newLeftover); err != nil {
			return 0, apperr.WrapInternal("failed to persist leftover", err)
		}

		return e.finish(ctx, idempotencyKey, log)
	}

	// Step 6: submit with retry.
	op := func() error {
		err := e.ledger.SubmitTransfer(ctx, e.self, *peer, e.asset, domain.SettlementMemo, integerAmount)
		if err != nil {
			log.Warnf("ledger transfer attempt failed, retrying: %v", err)
		}

		return err
	}

	if err := backoff.Retry(op, transferBackoff()); err != nil {
		log.Errorf("ledger transfer exhausted retries: %v", err)
		return 0, apperr.WrapInternal("ledger transfer failed after retries", err)
	}

	// Step 7: persist the new leftover only once the transfer has
	// committed.
	if err := e.store.SaveLeftover(ctx, sid, newLeftover); err != nil {
		return 0, apperr.WrapInternal("failed to persist leftover", err)
	}

	return e.finish(ctx, idempotencyKey, log)
}

// finish persists the idempotency record (step 8) and returns the status
// (step 9). It is only reached once the ledger effect (if any) has
// committed or been determined unnecessary.
func (e *Engine) finish(ctx context.Context, idempotencyKey string, log logging.Logger) (int, error) {
	const statusCreated = 201

	if err := e.store.SaveRequestStatus(ctx, idempotencyKey, statusCreated); err != nil {
		return 0, apperr.WrapInternal("failed to persist idempotency record", err)
	}

	log.Infof("settlement completed")

	return statusCreated, nil
}
