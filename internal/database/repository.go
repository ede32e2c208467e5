package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sink defines the standard interface for time-series storage.
type Sink interface {
	// EnsureSeries creates a series if it does not exist yet.
	EnsureSeries(ctx context.Context, key string, retention time.Duration) error
	// Append writes a single point to a series.
	Append(ctx context.Context, key string, ts time.Time, value decimal.Decimal) error
}
