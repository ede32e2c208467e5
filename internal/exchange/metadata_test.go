package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janus/internal/model"
)

// fakeInfoAPI answers from fixtures. When release channels are set each call
// blocks until its channel is closed and signals done when it returns.
type fakeInfoAPI struct {
	perp    *PerpMeta
	spot    *SpotMeta
	perpErr error
	spotErr error

	releasePerp, releaseSpot chan struct{}
	perpDone, spotDone       chan struct{}
}

func (f *fakeInfoAPI) Meta(ctx context.Context, dex string) (*PerpMeta, error) {
	if f.releasePerp != nil {
		<-f.releasePerp
		defer close(f.perpDone)
	}
	return f.perp, f.perpErr
}

func (f *fakeInfoAPI) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	if f.releaseSpot != nil {
		<-f.releaseSpot
		defer close(f.spotDone)
	}
	return f.spot, f.spotErr
}

func fixturePerpMeta() *PerpMeta {
	return &PerpMeta{Universe: []PerpAsset{
		{Name: "BTC", SzDecimals: 5},
		{Name: "ETH", SzDecimals: 4},
		{Name: "DOGE", SzDecimals: 0},
		{Name: "HYPE", SzDecimals: 2},
	}}
}

func fixtureSpotMeta() *SpotMeta {
	return &SpotMeta{
		Tokens: []SpotToken{
			{Name: "USDC", Index: 0, SzDecimals: 8},
			{Name: "PURR", Index: 1, SzDecimals: 0},
			{Name: "UBTC", Index: 197, SzDecimals: 5},
			{Name: "UETH", Index: 221, SzDecimals: 4},
			{Name: "HYPE", Index: 150, SzDecimals: 2},
		},
		Universe: []SpotPair{
			{Name: "PURR/USDC", Tokens: []int{1, 0}, Index: 0},
			{Name: "@142", Tokens: []int{197, 0}, Index: 142},
			{Name: "@151", Tokens: []int{221, 0}, Index: 151},
			{Name: "@107", Tokens: []int{150, 0}, Index: 107},
			{Name: "@999", Tokens: []int{999, 0}, Index: 999},
			{Name: "@1000", Tokens: []int{197}, Index: 1000},
		},
	}
}

func defaultRegistry(t *testing.T) *model.Registry {
	t.Helper()
	reg, err := model.DefaultRegistry()
	require.NoError(t, err)
	return reg
}

func TestMetadataResolver_BuildPerpetualMetadata(t *testing.T) {
	r := NewMetadataResolver(testLogger(), &fakeInfoAPI{perp: fixturePerpMeta()}, defaultRegistry(t))

	entries, err := r.BuildPerpetualMetadata(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[model.Product]model.ProductMetadata{
		model.NewPerpetual(model.BTC, model.USDC):  {Symbol: "BTC", Decimals: 5},
		model.NewPerpetual(model.ETH, model.USDC):  {Symbol: "ETH", Decimals: 4},
		model.NewPerpetual(model.HYPE, model.USDC): {Symbol: "HYPE", Decimals: 2},
	}, entries)
}

func TestMetadataResolver_BuildSpotMetadata(t *testing.T) {
	r := NewMetadataResolver(testLogger(), &fakeInfoAPI{spot: fixtureSpotMeta()}, defaultRegistry(t))

	entries, err := r.BuildSpotMetadata(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[model.Product]model.ProductMetadata{
		model.NewSpot(model.BTC, model.USDC):  {Symbol: "@142", Decimals: 5},
		model.NewSpot(model.ETH, model.USDC):  {Symbol: "@151", Decimals: 4},
		model.NewSpot(model.HYPE, model.USDC): {Symbol: "@107", Decimals: 2},
	}, entries)
}

func TestMetadataResolver_ResolveCompletionOrder(t *testing.T) {
	tests := []struct {
		name      string
		spotFirst bool
	}{
		{"perpetual completes first", false},
		{"spot completes first", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeInfoAPI{
				perp:        fixturePerpMeta(),
				spot:        fixtureSpotMeta(),
				releasePerp: make(chan struct{}),
				releaseSpot: make(chan struct{}),
				perpDone:    make(chan struct{}),
				spotDone:    make(chan struct{}),
			}
			r := NewMetadataResolver(testLogger(), api, defaultRegistry(t))

			type result struct {
				md  *Metadata
				err error
			}
			resCh := make(chan result, 1)
			go func() {
				md, err := r.Resolve(context.Background())
				resCh <- result{md, err}
			}()

			first, firstDone, second := api.releasePerp, api.perpDone, api.releaseSpot
			if tt.spotFirst {
				first, firstDone, second = api.releaseSpot, api.spotDone, api.releasePerp
			}

			close(first)
			<-firstDone
			select {
			case <-resCh:
				t.Fatal("metadata published before both builds completed")
			default:
			}
			close(second)

			res := <-resCh
			require.NoError(t, res.err)
			assert.Equal(t, 6, res.md.Len())

			md, ok := res.md.Lookup(model.NewPerpetual(model.BTC, model.USDC))
			require.True(t, ok)
			assert.Equal(t, "BTC", md.Symbol)

			md, ok = res.md.Lookup(model.NewSpot(model.BTC, model.USDC))
			require.True(t, ok)
			assert.Equal(t, "@142", md.Symbol)
		})
	}
}

func TestMetadataResolver_ResolveTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewMetadataResolver(testLogger(), &fakeInfoAPI{perp: fixturePerpMeta(), spotErr: boom}, defaultRegistry(t))

	md, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, md)
}

func TestMetadata_BySymbol(t *testing.T) {
	md := NewMetadata(map[model.Product]model.ProductMetadata{
		model.NewPerpetual(model.BTC, model.USDC): {Symbol: "BTC"},
		model.NewSpot(model.BTC, model.USDC):      {Symbol: "@142"},
	})

	index := md.BySymbol(
		model.NewPerpetual(model.BTC, model.USDC),
		model.NewSpot(model.BTC, model.USDC),
		model.NewSpot(model.XRP, model.USDC),
	)

	assert.Equal(t, map[string]model.Product{
		"BTC":  model.NewPerpetual(model.BTC, model.USDC),
		"@142": model.NewSpot(model.BTC, model.USDC),
	}, index)
}
