package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies one side of the top of book.
type Side string

const (
	Bid Side = "bid"
	Ask Side = "ask"
)

// QuoteTick represents a single best bid/offer observation for a product.
// ReceivedAt is the local receipt time, not the exchange event time.
type QuoteTick struct {
	Product    Product
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	ReceivedAt time.Time
}

// TimestampMillis returns the receipt time in unix milliseconds.
func (t QuoteTick) TimestampMillis() int64 {
	return t.ReceivedAt.UnixMilli()
}

// ProductMetadata is the exchange's view of a product.
type ProductMetadata struct {
	Symbol   string
	Decimals int
}
