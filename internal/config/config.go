// Package config loads the engine's configuration from environment
// variables: a reflect-based struct-tag loader plus an optional local
// .env file, rather than pulling in a full config framework for a dozen
// scalar fields.
package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is the engine's full runtime configuration (spec §6).
type Config struct {
	EnvName  string `env:"ENV_NAME"`
	LogLevel string `env:"LOG_LEVEL"`

	ToriiURL        string `env:"TORII_URL"`
	ConnectorURL    string `env:"CONNECTOR_URL"`
	IrohaAccountID  string `env:"IROHA_ACCOUNT_ID"`
	KeypairName     string `env:"KEYPAIR_NAME"`
	AssetID         string `env:"ASSET_ID"`
	AssetScale      int    `env:"ASSET_SCALE"`
	BindPort        int    `env:"BIND_PORT"`

	RedisURL       string `env:"REDIS_URL"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX"`

	ObserverTickMS         int `env:"OBSERVER_TICK_MS"`
	ConnectorHTTPTimeoutMS int `env:"CONNECTOR_HTTP_TIMEOUT_MS"`
	LedgerHTTPTimeoutMS    int `env:"LEDGER_HTTP_TIMEOUT_MS"`
}

// applyDefaults fills in the fallback values for optional fields.
func (c *Config) applyDefaults() {
	if c.BindPort == 0 {
		c.BindPort = 3000
	}

	if c.RedisKeyPrefix == "" {
		c.RedisKeyPrefix = "ilp-settlement:"
	}

	if c.ObserverTickMS == 0 {
		c.ObserverTickMS = 1000
	}

	if c.ConnectorHTTPTimeoutMS == 0 {
		c.ConnectorHTTPTimeoutMS = 10_000
	}

	if c.LedgerHTTPTimeoutMS == 0 {
		c.LedgerHTTPTimeoutMS = 10_000
	}
}

// Validate checks that every field spec §6 marks required is actually set.
// A Config/Startup error here is fatal (process exits 1, spec §6).
func (c *Config) Validate() error {
	required := map[string]string{
		"TORII_URL":        c.ToriiURL,
		"CONNECTOR_URL":    c.ConnectorURL,
		"IROHA_ACCOUNT_ID": c.IrohaAccountID,
		"KEYPAIR_NAME":     c.KeypairName,
		"ASSET_ID":         c.AssetID,
	}

	var missing []string

	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return errors.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.AssetScale < 0 || c.AssetScale > 18 {
		return errors.Errorf("ASSET_SCALE must be in [0, 18], got %d", c.AssetScale)
	}

	return nil
}

// Load reads a local .env file when ENV_NAME=local (or unset), then
// populates a Config from the process environment.
func Load() (*Config, error) {
	envName := getenvOrDefault("ENV_NAME", "local")

	if envName == "local" {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := setFromEnvVars(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config from environment")
	}

	cfg.applyDefaults()

	return cfg, nil
}

func getenvOrDefault(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return defaultValue
}

// setFromEnvVars builds a struct by setting its fields from the "env" tag.
// Supported kinds: string, bool, int (and int variants).
func setFromEnvVars(s any) error {
	v := reflect.ValueOf(s)

	t := v.Type()
	if t.Kind() != reflect.Ptr {
		return errors.New("s must be a pointer")
	}

	e := t.Elem()
	for i := 0; i < e.NumField(); i++ {
		f := e.Field(i)

		tag, ok := f.Tag.Lookup("env")
		if !ok {
			continue
		}

		fv := v.Elem().FieldByName(f.Name)
		if !fv.CanSet() {
			continue
		}

		raw, present := os.LookupEnv(tag)
		if !present {
			continue
		}

		switch fv.Kind() {
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return errors.Wrapf(err, "invalid bool for %s", tag)
			}

			fv.SetBool(b)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid int for %s", tag)
			}

			fv.SetInt(n)
		default:
			fv.SetString(raw)
		}
	}

	return nil
}
