// Package domain holds the settlement engine's core data model: the types
// shared by the store, the outgoing settlement engine, the incoming
// observer and the control surface.
package domain

import "github.com/shopspring/decimal"

// SettlementAccountID is the connector-assigned identifier for a peer's
// settlement account. It is opaque to this engine.
type SettlementAccountID string

// LedgerAccountID is a fully qualified identifier on the ledger, e.g.
// "bob@test".
type LedgerAccountID string

// AssetID identifies the asset this engine instance settles, e.g.
// "coin0#test".
type AssetID string

// AssetScale is the number of fractional digits an integer amount
// represents on the ledger. Must be in [0, 18].
type AssetScale int

// SettlementAccount is the per-peer record described in spec §3. The peer
// ledger account is nil until the identity handshake completes.
type SettlementAccount struct {
	ID                SettlementAccountID
	PeerLedgerAccount *LedgerAccountID
}

// Populated reports whether the peer identity handshake has completed.
func (a SettlementAccount) Populated() bool {
	return a.PeerLedgerAccount != nil
}

// SettlementQuantity is the wire payload posted to the connector's
// settlements endpoint and accepted from it. Amount MUST serialize as a
// JSON string per spec §6 (the connector's requirement), not a number.
type SettlementQuantity struct {
	Amount decimal.Decimal `json:"amount"`
	Scale  int             `json:"scale"`
}

// PaymentDetailsMessage is the symmetric request/response payload used
// during the peer-identity handshake (spec §3, §6). The field name is
// part of the wire contract and must not be renamed.
type PaymentDetailsMessage struct {
	IrohaAccountID string `json:"iroha_account_id"`
}

// SettlementMemo is the mandatory protocol constant used to discriminate
// settlement transfers from unrelated ledger traffic (spec §4.D, §4.E).
const SettlementMemo = "ILP Settlement"
