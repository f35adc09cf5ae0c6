// Package api implements the control surface, spec §4.F: the four HTTP
// endpoints the connector calls. Handlers hold direct references to the
// engine, store and connector client rather than any DI container or
// class hierarchy (spec §9: "a flat record of function references").
package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/yurivin/ilp-iroha-settlement/internal/connector"
	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/engine"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/httpserver"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/httpserver/apperr"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging"
	"github.com/yurivin/ilp-iroha-settlement/internal/store"
)

// Handler holds the collaborators the control surface delegates to.
type Handler struct {
	Store     store.Store
	Engine    *engine.Engine
	Connector *connector.Client
	Self      domain.LedgerAccountID
	Logger    logging.Logger
}

type accountSetupRequest struct {
	ID string `json:"id"`
}

// SetupAccount implements POST /accounts (spec §4.F).
func (h *Handler) SetupAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req accountSetupRequest
	if err := c.BodyParser(&req); err != nil {
		return httpserver.WithError(c, apperr.NewValidationError("malformed account-setup body"))
	}

	sid := domain.SettlementAccountID(req.ID)

	peer, err := h.Store.GetPeerLedgerAccount(ctx, sid)
	if err != nil {
		return httpserver.WithError(c, apperr.WrapInternal("failed to read peer account", err))
	}

	if peer != nil {
		// Re-setup is a no-op (spec §4.F).
		return httpserver.Created(c, fiber.Map{"id": req.ID})
	}

	if err := h.Store.CreateSettlementAccount(ctx, sid); err != nil {
		return httpserver.WithError(c, apperr.WrapInternal("failed to create settlement account", err))
	}

	resp, err := h.Connector.SendPaymentDetails(ctx, sid, domain.PaymentDetailsMessage{IrohaAccountID: string(h.Self)})
	if err != nil {
		h.Logger.Errorf("account setup handshake failed for %s: %v", sid, err)
		return httpserver.WithError(c, apperr.WrapInternal("peer identity exchange failed", err))
	}

	if err := h.Store.SavePeerLedgerAccount(ctx, sid, domain.LedgerAccountID(resp.IrohaAccountID)); err != nil {
		return httpserver.WithError(c, apperr.WrapInternal("failed to persist peer account", err))
	}

	return httpserver.Created(c, fiber.Map{"id": req.ID})
}

// DeleteAccount implements DELETE /accounts/{sid} (spec §4.F).
func (h *Handler) DeleteAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sid := domain.SettlementAccountID(c.Params("sid"))

	exists, err := h.Store.ExistsSettlementAccount(ctx, sid)
	if err != nil {
		return httpserver.WithError(c, apperr.WrapInternal("failed to check settlement account", err))
	}

	if !exists {
		return httpserver.WithError(c, apperr.NewNotFoundError("settlement account"))
	}

	if err := h.Store.DeleteSettlementAccount(ctx, sid); err != nil {
		return httpserver.WithError(c, apperr.WrapInternal("failed to delete settlement account", err))
	}

	return httpserver.NoContent(c)
}

// SettleOutgoing implements POST /accounts/{sid}/settlements (spec §4.F),
// delegating to the outgoing settlement engine (spec §4.D).
func (h *Handler) SettleOutgoing(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sid := domain.SettlementAccountID(c.Params("sid"))

	idempotencyKey := c.Get("Idempotency-Key")
	if idempotencyKey == "" {
		return httpserver.WithError(c, apperr.NewValidationError("missing Idempotency-Key header"))
	}

	var qty domain.SettlementQuantity
	if err := c.BodyParser(&qty); err != nil {
		return httpserver.WithError(c, apperr.NewValidationError("malformed settlement quantity body"))
	}

	status, err := h.Engine.Settle(ctx, sid, idempotencyKey, qty.Amount, qty.Scale)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return c.Status(status).JSON(fiber.Map{"status": status})
}

// ReceivePeerMessage implements POST /accounts/{sid}/messages (spec §4.F):
// the peer-identity handshake's inbound side. Body is raw bytes containing
// a PaymentDetailsMessage (application/octet-stream, spec §6).
func (h *Handler) ReceivePeerMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sid := domain.SettlementAccountID(c.Params("sid"))

	var msg domain.PaymentDetailsMessage
	if err := json.Unmarshal(c.Body(), &msg); err != nil {
		return httpserver.WithError(c, apperr.NewValidationError("malformed peer message"))
	}

	if err := h.Store.SavePeerLedgerAccount(ctx, sid, domain.LedgerAccountID(msg.IrohaAccountID)); err != nil {
		return httpserver.WithError(c, apperr.WrapInternal("failed to persist peer account", err))
	}

	reply := domain.PaymentDetailsMessage{IrohaAccountID: string(h.Self)}

	body, err := json.Marshal(reply)
	if err != nil {
		return httpserver.WithError(c, apperr.WrapInternal("failed to encode reply", err))
	}

	return httpserver.Bytes(c, fiber.StatusCreated, body)
}
