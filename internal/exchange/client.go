package exchange

import (
	"context"
	"iter"

	"janus/internal/model"
)

// ExchangeClient defines the standard interface for all exchange clients.
type ExchangeClient interface {
	GetName() string
	// Open resolves fresh metadata and connects a quote stream.
	Open(ctx context.Context) (Session, error)
}

// Session is one connected streaming session. Close releases every resource
// acquired by Open.
type Session interface {
	Metadata() *Metadata
	SubscribeQuote(ctx context.Context, p model.Product) error
	Receive(ctx context.Context) iter.Seq2[Frame, error]
	Close() error
}
