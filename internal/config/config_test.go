package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_MissingRequiredFields(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TORII_URL")
	assert.Contains(t, err.Error(), "CONNECTOR_URL")
}

func TestValidate_AssetScaleOutOfRange(t *testing.T) {
	cfg := &Config{
		ToriiURL:       "https://torii.example",
		ConnectorURL:   "https://connector.example",
		IrohaAccountID: "self@test",
		KeypairName:    "/keys/self",
		AssetID:        "coin0#test",
		AssetScale:     19,
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ASSET_SCALE")
}

func TestValidate_CompleteConfigPasses(t *testing.T) {
	cfg := &Config{
		ToriiURL:       "https://torii.example",
		ConnectorURL:   "https://connector.example",
		IrohaAccountID: "self@test",
		KeypairName:    "/keys/self",
		AssetID:        "coin0#test",
		AssetScale:     2,
	}

	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 3000, cfg.BindPort)
	assert.Equal(t, "ilp-settlement:", cfg.RedisKeyPrefix)
	assert.Equal(t, 1000, cfg.ObserverTickMS)
	assert.Equal(t, 10_000, cfg.ConnectorHTTPTimeoutMS)
	assert.Equal(t, 10_000, cfg.LedgerHTTPTimeoutMS)
}
