package model

import (
	"fmt"
	"strings"
)

// Kind distinguishes spot pairs from perpetual contracts.
type Kind int

const (
	Spot Kind = iota + 1
	Perpetual
)

func (k Kind) String() string {
	switch k {
	case Spot:
		return "spot"
	case Perpetual:
		return "perpetual"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// separator returns the textual separator between base and quote.
func (k Kind) separator() string {
	if k == Perpetual {
		return "-"
	}
	return "/"
}

// Product is a tradable instrument built from two coins. It is a comparable
// value and can be used directly as a map key.
type Product struct {
	Kind  Kind
	Base  Coin
	Quote Coin
}

// Compose builds a product of the given kind.
func Compose(base, quote Coin, kind Kind) Product {
	return Product{Kind: kind, Base: base, Quote: quote}
}

// NewSpot builds a spot pair rendered as BASE/QUOTE.
func NewSpot(base, quote Coin) Product {
	return Compose(base, quote, Spot)
}

// NewPerpetual builds a perpetual contract rendered as BASE-QUOTE.
func NewPerpetual(base, quote Coin) Product {
	return Compose(base, quote, Perpetual)
}

func (p Product) String() string {
	return p.Base.Name() + p.Kind.separator() + p.Quote.Name()
}

// ParseProduct parses "BASE/QUOTE" as a spot pair and "BASE-QUOTE" as a
// perpetual, resolving both sides through reg.
func ParseProduct(reg *Registry, s string) (Product, error) {
	s = strings.TrimSpace(s)

	kind := Spot
	base, quote, ok := strings.Cut(s, "/")
	if !ok {
		i := strings.LastIndex(s, "-")
		if i <= 0 || i == len(s)-1 {
			return Product{}, fmt.Errorf("invalid product %q: expected BASE/QUOTE or BASE-QUOTE", s)
		}
		kind = Perpetual
		base, quote = s[:i], s[i+1:]
	}

	baseCoin, err := reg.Resolve(base)
	if err != nil {
		return Product{}, fmt.Errorf("product %q: %w", s, err)
	}
	quoteCoin, err := reg.Resolve(quote)
	if err != nil {
		return Product{}, fmt.Errorf("product %q: %w", s, err)
	}

	return Compose(baseCoin, quoteCoin, kind), nil
}
