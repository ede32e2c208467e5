package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janus/internal/config"
)

func TestNewClient(t *testing.T) {
	reg := defaultRegistry(t)

	client, err := NewClient("hyperliquid", testLogger(), &config.ExchangeConfig{Env: "prod"}, reg)
	require.NoError(t, err)
	assert.Equal(t, "hyperliquid", client.GetName())

	hl, ok := client.(*HyperliquidClient)
	require.True(t, ok)
	assert.Equal(t, "https://api.hyperliquid.xyz", hl.apiURL)
	assert.Equal(t, "wss://api.hyperliquid.xyz/ws", hl.wsURL)

	_, err = NewClient("hyperliquid", testLogger(), &config.ExchangeConfig{Env: "mainnet"}, reg)
	assert.ErrorIs(t, err, ErrUnknownEnv)

	_, err = NewClient("kraken", testLogger(), &config.ExchangeConfig{Env: "dev"}, reg)
	assert.Error(t, err)
}
