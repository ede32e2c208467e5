package ingest

import (
	"fmt"
	"sort"

	"janus/internal/exchange"
	"janus/internal/model"
)

// SeriesKey returns the sink key for one side of a product,
// e.g. "hyperliquid:bbo:BTC-USDC:bid".
func SeriesKey(exchangeName string, p model.Product, side model.Side) string {
	return fmt.Sprintf("%s:bbo:%s:%s", exchangeName, p, side)
}

// Router maps exchange symbols back onto canonical products.
type Router struct {
	bySymbol map[string]model.Product
}

// NewRouter indexes the given products by their metadata symbol. Products
// without metadata are not routable.
func NewRouter(md *exchange.Metadata, products []model.Product) *Router {
	return &Router{bySymbol: md.BySymbol(products...)}
}

// Route turns a quote into a tick for a known product.
func (r *Router) Route(q Quote) (model.QuoteTick, bool) {
	p, ok := r.bySymbol[q.Symbol]
	if !ok {
		return model.QuoteTick{}, false
	}
	return model.QuoteTick{Product: p, Bid: q.Bid, Ask: q.Ask, ReceivedAt: q.ReceivedAt}, true
}

// Products returns the routable products, sorted by display form.
func (r *Router) Products() []model.Product {
	products := make([]model.Product, 0, len(r.bySymbol))
	for _, p := range r.bySymbol {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].String() < products[j].String() })
	return products
}
