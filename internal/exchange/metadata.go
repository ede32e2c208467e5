package exchange

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"janus/internal/model"
)

// spotRenames maps wrapped spot token names onto their underlying asset.
var spotRenames = map[string]string{
	"UBTC": "BTC",
	"UETH": "ETH",
	"USOL": "SOL",
}

// InfoAPI is the subset of the REST API the resolver needs.
type InfoAPI interface {
	Meta(ctx context.Context, dex string) (*PerpMeta, error)
	SpotMeta(ctx context.Context) (*SpotMeta, error)
}

// Metadata maps canonical products to their exchange symbols. It is read-only.
type Metadata struct {
	products map[model.Product]model.ProductMetadata
}

// NewMetadata wraps entries. The map must not be modified afterwards.
func NewMetadata(entries map[model.Product]model.ProductMetadata) *Metadata {
	if entries == nil {
		entries = make(map[model.Product]model.ProductMetadata)
	}
	return &Metadata{products: entries}
}

// Lookup returns the exchange metadata of a product.
func (m *Metadata) Lookup(p model.Product) (model.ProductMetadata, bool) {
	if m == nil {
		return model.ProductMetadata{}, false
	}
	md, ok := m.products[p]
	return md, ok
}

// Len returns the number of products with metadata.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.products)
}

// BySymbol builds the reverse symbol index for products. Products without
// metadata are left out.
func (m *Metadata) BySymbol(products ...model.Product) map[string]model.Product {
	index := make(map[string]model.Product, len(products))
	for _, p := range products {
		if md, ok := m.Lookup(p); ok {
			index[md.Symbol] = p
		}
	}
	return index
}

// MetadataResolver builds product metadata from the perpetual and spot universes.
type MetadataResolver struct {
	logger *slog.Logger
	api    InfoAPI
	reg    *model.Registry
}

// NewMetadataResolver creates a new MetadataResolver.
func NewMetadataResolver(logger *slog.Logger, api InfoAPI, reg *model.Registry) *MetadataResolver {
	return &MetadataResolver{logger: logger, api: api, reg: reg}
}

// Resolve fetches both universes concurrently and returns metadata only once
// both have been built.
func (r *MetadataResolver) Resolve(ctx context.Context) (*Metadata, error) {
	var perps, spots map[model.Product]model.ProductMetadata

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		perps, err = r.BuildPerpetualMetadata(gctx)
		return err
	})
	g.Go(func() (err error) {
		spots, err = r.BuildSpotMetadata(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make(map[model.Product]model.ProductMetadata, len(perps)+len(spots))
	for p, md := range perps {
		entries[p] = md
	}
	for p, md := range spots {
		entries[p] = md
	}

	r.logger.Info("MetadataResolver: metadata ready", "perpetuals", len(perps), "spots", len(spots))
	return NewMetadata(entries), nil
}

// BuildPerpetualMetadata maps every known perpetual onto Perpetual(coin, USDC).
func (r *MetadataResolver) BuildPerpetualMetadata(ctx context.Context) (map[model.Product]model.ProductMetadata, error) {
	meta, err := r.api.Meta(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch perpetual meta: %w", err)
	}
	if meta.Error != "" {
		r.logger.Warn("MetadataResolver: degraded perpetual meta response", "error", meta.Error)
	}

	usdc, err := r.reg.Resolve(model.USDC.Name())
	if err != nil {
		return nil, err
	}

	entries := make(map[model.Product]model.ProductMetadata)
	for _, asset := range meta.Universe {
		coin, err := r.reg.Resolve(asset.Name)
		if err != nil {
			r.logger.Debug("MetadataResolver: skipping untracked perpetual", "name", asset.Name)
			continue
		}

		product := model.NewPerpetual(coin, usdc)
		entries[product] = model.ProductMetadata{Symbol: asset.Name, Decimals: asset.SzDecimals}
		r.logger.Info("MetadataResolver: added metadata", "product", product, "symbol", asset.Name)
	}
	return entries, nil
}

type spotToken struct {
	name     string
	decimals int
}

// BuildSpotMetadata maps every spot pair whose tokens are both known.
func (r *MetadataResolver) BuildSpotMetadata(ctx context.Context) (map[model.Product]model.ProductMetadata, error) {
	meta, err := r.api.SpotMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch spot meta: %w", err)
	}
	if meta.Error != "" {
		r.logger.Warn("MetadataResolver: degraded spot meta response", "error", meta.Error)
	}

	tokens := make(map[int]spotToken, len(meta.Tokens))
	for _, t := range meta.Tokens {
		name := t.Name
		if renamed, ok := spotRenames[name]; ok {
			name = renamed
		}
		tokens[t.Index] = spotToken{name: name, decimals: t.SzDecimals}
	}

	entries := make(map[model.Product]model.ProductMetadata)
	for _, pair := range meta.Universe {
		if len(pair.Tokens) != 2 {
			r.logger.Warn("MetadataResolver: malformed spot pair", "name", pair.Name, "tokens", pair.Tokens)
			continue
		}
		base, okBase := tokens[pair.Tokens[0]]
		quote, okQuote := tokens[pair.Tokens[1]]
		if !okBase || !okQuote {
			r.logger.Warn("MetadataResolver: spot pair references unknown token", "name", pair.Name, "tokens", pair.Tokens)
			continue
		}

		baseCoin, err := r.reg.Resolve(base.name)
		if err != nil {
			r.logger.Debug("MetadataResolver: skipping untracked spot pair", "name", pair.Name, "base", base.name)
			continue
		}
		quoteCoin, err := r.reg.Resolve(quote.name)
		if err != nil {
			r.logger.Debug("MetadataResolver: skipping untracked spot pair", "name", pair.Name, "quote", quote.name)
			continue
		}

		product := model.NewSpot(baseCoin, quoteCoin)
		if prev, ok := entries[product]; ok {
			r.logger.Warn("MetadataResolver: spot product listed twice", "product", product, "previous", prev.Symbol, "symbol", pair.Name)
		}
		entries[product] = model.ProductMetadata{Symbol: pair.Name, Decimals: base.decimals}
		r.logger.Info("MetadataResolver: added metadata", "product", product, "symbol", pair.Name)
	}
	return entries, nil
}
