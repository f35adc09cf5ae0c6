// Package httpclient is a concrete ledger.Client talking to an external
// ledger gateway over HTTP/JSON: a base URL plus a timeout wrapping
// net/http, with no generic HTTP client framework pulled in. The actual
// Iroha torii wire protocol is opaque per spec §1/§4.C; this client
// assumes a JSON gateway in front of it, which is the natural shape for
// "submit a signed transaction" and "page transaction history" once
// delegated behind an interface.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/ledger"
)

// KeyPair is the signing identity loaded from the keypair-name config
// field (spec §6: "<prefix>.priv" / "<prefix>.pub", both hex-encoded).
// Loading and parsing the key files themselves is delegated to the key-file
// reader collaborator (spec §1, out of scope); this struct just carries the
// already-loaded material through to the transport layer.
type KeyPair struct {
	PublicHex  string
	PrivateHex string
}

// Client is an HTTP/JSON ledger.Client implementation.
type Client struct {
	baseURL string
	self    domain.LedgerAccountID
	keys    KeyPair
	http    *http.Client
}

// New builds a Client against toriiURL for self. keys is held by the Client
// but is not sent with, or used to sign, any request.
func New(toriiURL string, self domain.LedgerAccountID, keys KeyPair, timeout time.Duration) *Client {
	return &Client{
		baseURL: toriiURL,
		self:    self,
		keys:    keys,
		http:    &http.Client{Timeout: timeout},
	}
}

type getAccountResponse struct {
	AccountID string `json:"account_id"`
}

// GetAccount performs the startup liveness/auth probe (spec §4.C).
func (c *Client) GetAccount(ctx context.Context, account domain.LedgerAccountID) error {
	var out getAccountResponse

	_, err := c.do(ctx, http.MethodGet, "/accounts/"+string(account), nil, &out)
	if err != nil {
		return &ledger.Error{Op: "get_account", Err: err}
	}

	return nil
}

type submitTransferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Asset  string           `json:"asset"`
	Memo   string           `json:"memo"`
	Amount decimal.Decimal `json:"amount"`
}

// SubmitTransfer posts the transfer to the gateway as unsigned JSON,
// blocking until the gateway answers (spec §4.C); no signature is attached
// by this client. Any terminal or transient failure is
// returned as a *ledger.Error so the engine's retry policy can recognize
// it.
func (c *Client) SubmitTransfer(ctx context.Context, from, to domain.LedgerAccountID, asset domain.AssetID, memo string, amount decimal.Decimal) error {
	req := submitTransferRequest{
		From:   string(from),
		To:     string(to),
		Asset:  string(asset),
		Memo:   memo,
		Amount: amount,
	}

	_, err := c.do(ctx, http.MethodPost, "/transactions", req, nil)
	if err != nil {
		return &ledger.Error{Op: "submit_transfer", Err: err}
	}

	return nil
}

type txDTO struct {
	Hash      string          `json:"hash"`
	Transfers []transferDTO   `json:"transfers"`
}

type transferDTO struct {
	Src    string          `json:"src"`
	Dst    string          `json:"dst"`
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo"`
}

func (t txDTO) toDomain() ledger.Transaction {
	transfers := make([]ledger.TransferCommand, 0, len(t.Transfers))
	for _, tr := range t.Transfers {
		transfers = append(transfers, ledger.TransferCommand{
			Src:    domain.LedgerAccountID(tr.Src),
			Dst:    domain.LedgerAccountID(tr.Dst),
			Asset:  domain.AssetID(tr.Asset),
			Amount: tr.Amount,
			Memo:   tr.Memo,
		})
	}

	return ledger.Transaction{Hash: t.Hash, Transfers: transfers}
}

// ListAccountAssetTransactions returns transactions after cursor
// (exclusive), oldest first (spec §4.C).
func (c *Client) ListAccountAssetTransactions(ctx context.Context, account domain.LedgerAccountID, asset domain.AssetID, pageSize int, cursor *string) ([]ledger.Transaction, error) {
	path := fmt.Sprintf("/accounts/%s/assets/%s/transactions?page_size=%d", account, asset, pageSize)
	if cursor != nil {
		path += "&after=" + *cursor
	}

	var out []txDTO

	_, err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, &ledger.Error{Op: "list_account_asset_transactions", Err: err}
	}

	txs := make([]ledger.Transaction, 0, len(out))
	for _, t := range out {
		txs = append(txs, t.toDomain())
	}

	return txs, nil
}

type listByHashesRequest struct {
	Hashes []string `json:"hashes"`
}

// ListTransactionsByHashes fetches transactions by hash (spec §4.C).
func (c *Client) ListTransactionsByHashes(ctx context.Context, hashes []string) ([]ledger.Transaction, error) {
	var out []txDTO

	_, err := c.do(ctx, http.MethodPost, "/transactions/by-hash", listByHashesRequest{Hashes: hashes}, &out)
	if err != nil {
		return nil, &ledger.Error{Op: "list_transactions_by_hashes", Err: err}
	}

	txs := make([]ledger.Transaction, 0, len(out))
	for _, t := range out {
		txs = append(txs, t.toDomain())
	}

	return txs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rdr io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal body: %w", err)
		}

		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
