package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"janus/internal/exchange"
)

var (
	// ErrNotQuote is returned for frames on any channel other than bbo.
	ErrNotQuote = errors.New("not a quote frame")
	// ErrMalformedQuote is returned for bbo frames that cannot be parsed.
	ErrMalformedQuote = errors.New("malformed quote frame")
)

// Quote is a parsed best bid/offer keyed by exchange symbol.
type Quote struct {
	Symbol     string
	Bid        decimal.Decimal
	Ask        decimal.Decimal
	ReceivedAt time.Time
}

type bboData struct {
	Coin string            `json:"coin"`
	BBO  []json.RawMessage `json:"bbo"`
}

// ParseQuote extracts the best bid and ask from a bbo frame. The exchange does
// not timestamp these frames, so receivedAt is used as the tick time.
func ParseQuote(frame exchange.Frame, receivedAt time.Time) (Quote, error) {
	if frame.Channel != exchange.ChannelBBO {
		return Quote{}, ErrNotQuote
	}

	var data bboData
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrMalformedQuote, err)
	}
	if data.Coin == "" {
		return Quote{}, fmt.Errorf("%w: missing coin", ErrMalformedQuote)
	}
	if len(data.BBO) < 2 {
		return Quote{}, fmt.Errorf("%w: expected two book levels, got %d", ErrMalformedQuote, len(data.BBO))
	}

	bid, err := levelPrice(data.BBO[0])
	if err != nil {
		return Quote{}, fmt.Errorf("%w: bid: %v", ErrMalformedQuote, err)
	}
	ask, err := levelPrice(data.BBO[1])
	if err != nil {
		return Quote{}, fmt.Errorf("%w: ask: %v", ErrMalformedQuote, err)
	}

	return Quote{Symbol: data.Coin, Bid: bid, Ask: ask, ReceivedAt: receivedAt}, nil
}

// levelPrice reads the price of a [price, size] level. A {"px": ...} object is
// accepted as well.
func levelPrice(raw json.RawMessage) (decimal.Decimal, error) {
	var px json.RawMessage

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var level struct {
			Px json.RawMessage `json:"px"`
		}
		if err := json.Unmarshal(raw, &level); err != nil {
			return decimal.Decimal{}, err
		}
		px = level.Px
	} else {
		var level []json.RawMessage
		if err := json.Unmarshal(raw, &level); err != nil {
			return decimal.Decimal{}, err
		}
		if len(level) > 0 {
			px = level[0]
		}
	}

	px = bytes.TrimSpace(px)
	if len(px) == 0 || string(px) == "null" {
		return decimal.Decimal{}, errors.New("missing price")
	}

	var price decimal.Decimal
	if err := price.UnmarshalJSON(px); err != nil {
		return decimal.Decimal{}, err
	}
	return price, nil
}
