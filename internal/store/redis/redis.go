// Package redis is the concrete store.Store backed by a single Redis
// instance: a lazy-connect singleton wrapping go-redis, keyed across the
// peer-identity, idempotency, leftover and transaction-tracking key-spaces
// this engine needs.
package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/httpserver/apperr"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging"
)

const uncheckedTxSetKey = "tx-unchecked"
const cursorKey = "cursor:last-checked-tx"

// Connection is a lazy-connect singleton around a redis.Client.
type Connection struct {
	ConnectionStringSource string
	KeyPrefix               string
	Client                  *redis.Client
	Connected               bool
	Logger                  logging.Logger
}

// Connect dials Redis and verifies liveness with a PING.
func (c *Connection) Connect(ctx context.Context) error {
	c.Logger.Info("connecting to redis...")

	opts, err := redis.ParseURL(c.ConnectionStringSource)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(opts)

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		c.Logger.Errorf("redis ping failed: %v", err)
		return err
	}

	c.Logger.Info("connected to redis")

	c.Client = rdb
	c.Connected = true

	return nil
}

// GetClient returns the underlying client, connecting on first use.
func (c *Connection) GetClient(ctx context.Context) (*redis.Client, error) {
	if c.Client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.Client, nil
}

// Store is the Redis-backed store.Store implementation.
type Store struct {
	conn   *Connection
	prefix string
}

// New builds a Store over conn, namespacing every key with conn.KeyPrefix.
func New(conn *Connection) *Store {
	return &Store{conn: conn, prefix: conn.KeyPrefix}
}

func (s *Store) key(parts ...string) string {
	return s.prefix + strings.Join(parts, ":")
}

func (s *Store) client(ctx context.Context) (*redis.Client, error) {
	return s.conn.GetClient(ctx)
}

func (s *Store) peerKey(sid domain.SettlementAccountID) string {
	return s.key("peer", string(sid))
}

func (s *Store) peerReverseKey(laid domain.LedgerAccountID) string {
	return s.key("peer-reverse", string(laid))
}

func (s *Store) accountExistsKey(sid domain.SettlementAccountID) string {
	return s.key("account-exists", string(sid))
}

func (s *Store) idempotencyKey(k string) string {
	return s.key("idempotency", k)
}

func (s *Store) leftoverKey(sid domain.SettlementAccountID) string {
	return s.key("leftover", string(sid))
}

func (s *Store) txSeenKey(hash string) string {
	return s.key("tx-seen", hash)
}

func (s *Store) GetPeerLedgerAccount(ctx context.Context, sid domain.SettlementAccountID) (*domain.LedgerAccountID, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	val, err := c.Get(ctx, s.peerKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	laid := domain.LedgerAccountID(val)

	return &laid, nil
}

func (s *Store) SavePeerLedgerAccount(ctx context.Context, sid domain.SettlementAccountID, laid domain.LedgerAccountID) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	existing, err := s.GetPeerLedgerAccount(ctx, sid)
	if err != nil {
		return err
	}

	if existing != nil && *existing != laid {
		return apperr.ConflictError{Entity: "settlement account", Message: "peer ledger account cannot be reassigned"}
	}

	pipe := c.TxPipeline()
	pipe.Set(ctx, s.peerKey(sid), string(laid), 0)
	pipe.Set(ctx, s.peerReverseKey(laid), string(sid), 0)

	_, err = pipe.Exec(ctx)

	return err
}

func (s *Store) ReverseLookupSettlementAccount(ctx context.Context, laid domain.LedgerAccountID) (*domain.SettlementAccountID, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	val, err := c.Get(ctx, s.peerReverseKey(laid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	sid := domain.SettlementAccountID(val)

	return &sid, nil
}

func (s *Store) ExistsSettlementAccount(ctx context.Context, sid domain.SettlementAccountID) (bool, error) {
	c, err := s.client(ctx)
	if err != nil {
		return false, err
	}

	n, err := c.Exists(ctx, s.accountExistsKey(sid)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *Store) CreateSettlementAccount(ctx context.Context, sid domain.SettlementAccountID) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return c.Set(ctx, s.accountExistsKey(sid), "1", 0).Err()
}

func (s *Store) DeleteSettlementAccount(ctx context.Context, sid domain.SettlementAccountID) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	peer, err := s.GetPeerLedgerAccount(ctx, sid)
	if err != nil {
		return err
	}

	pipe := c.TxPipeline()
	pipe.Del(ctx, s.accountExistsKey(sid))
	pipe.Del(ctx, s.peerKey(sid))
	pipe.Del(ctx, s.leftoverKey(sid))

	if peer != nil {
		pipe.Del(ctx, s.peerReverseKey(*peer))
	}

	_, err = pipe.Exec(ctx)

	return err
}

func (s *Store) GetRequestStatus(ctx context.Context, key string) (*int, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	val, err := c.Get(ctx, s.idempotencyKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	status, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}

	return &status, nil
}

func (s *Store) SaveRequestStatus(ctx context.Context, key string, status int) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return c.Set(ctx, s.idempotencyKey(key), strconv.Itoa(status), 0).Err()
}

func (s *Store) GetLeftover(ctx context.Context, sid domain.SettlementAccountID) (decimal.Decimal, error) {
	c, err := s.client(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	val, err := c.Get(ctx, s.leftoverKey(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}

	if err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(val)
}

func (s *Store) SaveLeftover(ctx context.Context, sid domain.SettlementAccountID, value decimal.Decimal) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return c.Set(ctx, s.leftoverKey(sid), value.String(), 0).Err()
}

func (s *Store) GetLastCheckedTxHash(ctx context.Context) (*string, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	val, err := c.Get(ctx, s.key(cursorKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &val, nil
}

func (s *Store) SetLastCheckedTxHash(ctx context.Context, hash string) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return c.Set(ctx, s.key(cursorKey), hash, 0).Err()
}

func (s *Store) WasTxChecked(ctx context.Context, hash string) (bool, error) {
	c, err := s.client(ctx)
	if err != nil {
		return false, err
	}

	n, err := c.Exists(ctx, s.txSeenKey(hash)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *Store) SaveCheckedTx(ctx context.Context, hash string) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return c.Set(ctx, s.txSeenKey(hash), "1", 0).Err()
}

func (s *Store) SaveUncheckedTx(ctx context.Context, hash string) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return c.SAdd(ctx, s.key(uncheckedTxSetKey), hash).Err()
}

func (s *Store) GetUncheckedTxHashes(ctx context.Context) ([]string, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	return c.SMembers(ctx, s.key(uncheckedTxSetKey)).Result()
}

func (s *Store) RemoveUncheckedTx(ctx context.Context, hash string) error {
	c, err := s.client(ctx)
	if err != nil {
		return err
	}

	return c.SRem(ctx, s.key(uncheckedTxSetKey), hash).Err()
}
