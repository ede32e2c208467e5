package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janus/internal/exchange"
)

func frame(t *testing.T, raw string) exchange.Frame {
	t.Helper()
	var f exchange.Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	return f
}

func TestParseQuote(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	q, err := ParseQuote(frame(t, `{"channel":"bbo","data":{"coin":"BTC","bbo":[["50000","1"],["50010","1"]]}}`), now)
	require.NoError(t, err)

	assert.Equal(t, "BTC", q.Symbol)
	assert.True(t, q.Bid.Equal(decimal.NewFromFloat(50000.0)), q.Bid.String())
	assert.True(t, q.Ask.Equal(decimal.NewFromFloat(50010.0)), q.Ask.String())
	assert.Equal(t, now, q.ReceivedAt)
}

func TestParseQuote_AlternativeShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		bid  string
		ask  string
	}{
		{"numeric prices", `{"channel":"bbo","data":{"coin":"@142","bbo":[[101.5,2],[102,3]]}}`, "101.5", "102"},
		{"level objects", `{"channel":"bbo","data":{"coin":"ETH","time":1,"bbo":[{"px":"3000.1","sz":"1","n":2},{"px":"3000.2","sz":"4","n":1}]}}`, "3000.1", "3000.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuote(frame(t, tt.raw), time.Now())
			require.NoError(t, err)
			assert.Equal(t, tt.bid, q.Bid.String())
			assert.Equal(t, tt.ask, q.Ask.String())
		})
	}
}

func TestParseQuote_NotQuote(t *testing.T) {
	for _, raw := range []string{
		`{"channel":"subscriptionResponse","data":{"method":"subscribe"}}`,
		`{"channel":"trades","data":{"coin":"BTC","bbo":[["1","1"],["2","1"]]}}`,
		`{"data":{}}`,
	} {
		_, err := ParseQuote(frame(t, raw), time.Now())
		assert.ErrorIs(t, err, ErrNotQuote, raw)
	}
}

func TestParseQuote_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing data", `{"channel":"bbo"}`},
		{"missing coin", `{"channel":"bbo","data":{"bbo":[["1","1"],["2","1"]]}}`},
		{"missing bbo", `{"channel":"bbo","data":{"coin":"BTC"}}`},
		{"one side only", `{"channel":"bbo","data":{"coin":"BTC","bbo":[["1","1"]]}}`},
		{"null bid level", `{"channel":"bbo","data":{"coin":"BTC","bbo":[null,["2","1"]]}}`},
		{"null ask price", `{"channel":"bbo","data":{"coin":"BTC","bbo":[["1","1"],[null,"1"]]}}`},
		{"empty bid price", `{"channel":"bbo","data":{"coin":"BTC","bbo":[["","1"],["2","1"]]}}`},
		{"non-numeric ask", `{"channel":"bbo","data":{"coin":"BTC","bbo":[["1","1"],["abc","1"]]}}`},
		{"level not an array", `{"channel":"bbo","data":{"coin":"BTC","bbo":["1","2"]}}`},
		{"empty level", `{"channel":"bbo","data":{"coin":"BTC","bbo":[[],["2","1"]]}}`},
		{"bbo not an array", `{"channel":"bbo","data":{"coin":"BTC","bbo":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuote(frame(t, tt.raw), time.Now())
			assert.ErrorIs(t, err, ErrMalformedQuote)
		})
	}
}
