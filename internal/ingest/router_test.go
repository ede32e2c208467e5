package ingest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janus/internal/exchange"
	"janus/internal/model"
)

func testMetadata() *exchange.Metadata {
	return exchange.NewMetadata(map[model.Product]model.ProductMetadata{
		model.NewPerpetual(model.BTC, model.USDC): {Symbol: "BTC", Decimals: 5},
		model.NewSpot(model.BTC, model.USDC):      {Symbol: "@142", Decimals: 5},
		model.NewPerpetual(model.ETH, model.USDC): {Symbol: "ETH", Decimals: 4},
	})
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "hyperliquid:bbo:BTC-USDC:bid", SeriesKey("hyperliquid", model.NewPerpetual(model.BTC, model.USDC), model.Bid))
	assert.Equal(t, "hyperliquid:bbo:BTC/USDC:ask", SeriesKey("hyperliquid", model.NewSpot(model.BTC, model.USDC), model.Ask))
}

func TestRouter_Route(t *testing.T) {
	router := NewRouter(testMetadata(), []model.Product{
		model.NewPerpetual(model.BTC, model.USDC),
		model.NewSpot(model.BTC, model.USDC),
		model.NewSpot(model.SOL, model.USDC),
	})
	now := time.Now()

	tick, ok := router.Route(Quote{Symbol: "@142", Bid: decimal.NewFromInt(1), Ask: decimal.NewFromInt(2), ReceivedAt: now})
	require.True(t, ok)
	assert.Equal(t, model.NewSpot(model.BTC, model.USDC), tick.Product)
	assert.Equal(t, now.UnixMilli(), tick.TimestampMillis())

	// ETH has metadata but is not configured.
	_, ok = router.Route(Quote{Symbol: "ETH"})
	assert.False(t, ok)

	assert.Equal(t, []model.Product{
		model.NewPerpetual(model.BTC, model.USDC),
		model.NewSpot(model.BTC, model.USDC),
	}, router.Products())
}
