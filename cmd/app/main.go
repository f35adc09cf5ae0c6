// Command app is the settlement engine's process entrypoint: load config,
// build the logger, wire collaborators, run until signalled, shut down.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yurivin/ilp-iroha-settlement/internal/api"
	"github.com/yurivin/ilp-iroha-settlement/internal/config"
	"github.com/yurivin/ilp-iroha-settlement/internal/connector"
	"github.com/yurivin/ilp-iroha-settlement/internal/domain"
	"github.com/yurivin/ilp-iroha-settlement/internal/engine"
	"github.com/yurivin/ilp-iroha-settlement/internal/ledger/httpclient"
	"github.com/yurivin/ilp-iroha-settlement/internal/observer"
	"github.com/yurivin/ilp-iroha-settlement/internal/platform/logging"
	storeredis "github.com/yurivin/ilp-iroha-settlement/internal/store/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewZap(cfg.EnvName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Errorf("fatal startup error: %v", err)
		_ = logger.Sync()

		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	self := domain.LedgerAccountID(cfg.IrohaAccountID)
	asset := domain.AssetID(cfg.AssetID)

	keys, err := loadKeyPair(cfg.KeypairName)
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}

	ledgerClient := httpclient.New(cfg.ToriiURL, self, keys, time.Duration(cfg.LedgerHTTPTimeoutMS)*time.Millisecond)

	logger.Info("probing ledger connectivity...")

	if err := ledgerClient.GetAccount(ctx, self); err != nil {
		return fmt.Errorf("ledger liveness probe failed: %w", err)
	}

	conn := &storeredis.Connection{
		ConnectionStringSource: cfg.RedisURL,
		KeyPrefix:              cfg.RedisKeyPrefix,
		Logger:                 logger,
	}
	if err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}

	st := storeredis.New(conn)

	connectorClient := connector.New(cfg.ConnectorURL, time.Duration(cfg.ConnectorHTTPTimeoutMS)*time.Millisecond, logger)

	eng := engine.New(st, ledgerClient, self, asset, cfg.AssetScale, logger)

	obs := observer.New(st, ledgerClient, connectorClient, self, asset, cfg.AssetScale, time.Duration(cfg.ObserverTickMS)*time.Millisecond, logger)

	go obs.Run(ctx)

	handler := &api.Handler{
		Store:     st,
		Engine:    eng,
		Connector: connectorClient,
		Self:      self,
		Logger:    logger,
	}

	app := newFiberApp(handler, logger)

	serverErrs := make(chan error, 1)

	go func() {
		addr := ":" + strconv.Itoa(cfg.BindPort)

		logger.Infof("listening on %s", addr)

		if err := app.Listen(addr); err != nil {
			serverErrs <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrs:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return app.ShutdownWithContext(shutdownCtx)
}

func newFiberApp(h *api.Handler, logger logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"version": "dev"})
	})

	app.Post("/accounts", h.SetupAccount)
	app.Delete("/accounts/:sid", h.DeleteAccount)
	app.Post("/accounts/:sid/settlements", h.SettleOutgoing)
	app.Post("/accounts/:sid/messages", h.ReceivePeerMessage)

	return app
}

// loadKeyPair reads "<prefix>.pub" and "<prefix>.priv" as hex-encoded
// signing material (spec §6).
func loadKeyPair(prefix string) (httpclient.KeyPair, error) {
	pub, err := os.ReadFile(prefix + ".pub")
	if err != nil {
		return httpclient.KeyPair{}, fmt.Errorf("read public key: %w", err)
	}

	priv, err := os.ReadFile(prefix + ".priv")
	if err != nil {
		return httpclient.KeyPair{}, fmt.Errorf("read private key: %w", err)
	}

	return httpclient.KeyPair{
		PublicHex:  string(pub),
		PrivateHex: string(priv),
	}, nil
}
