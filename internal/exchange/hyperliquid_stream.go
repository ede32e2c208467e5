package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"janus/internal/model"
)

// ChannelBBO is the best bid/offer channel and subscription type.
const ChannelBBO = "bbo"

// Conn is the part of *websocket.Conn the stream uses.
type Conn interface {
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// DialFunc opens a websocket connection to url.
type DialFunc func(ctx context.Context, url string) (Conn, error)

func dialWebsocket(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Subscription is a Hyperliquid stream key.
type Subscription struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
}

type controlFrame struct {
	Method       string       `json:"method"`
	Subscription Subscription `json:"subscription"`
}

// Frame is a decoded inbound message. Data is left undecoded for the consumer.
type Frame struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// onceConn makes Close idempotent so that a context watcher and an explicit
// Close can both release the socket.
type onceConn struct {
	Conn
	once sync.Once
	err  error
}

func (c *onceConn) Close() error {
	c.once.Do(func() { c.err = c.Conn.Close() })
	return c.err
}

// HyperliquidStream is a single websocket connection to Hyperliquid.
// Subscriptions are not replayed if the connection is re-established.
type HyperliquidStream struct {
	logger   *slog.Logger
	url      string
	metadata *Metadata
	dial     DialFunc

	mu            sync.Mutex
	conn          *onceConn
	subscriptions map[Subscription]struct{}

	// writeMu serializes control frames.
	writeMu sync.Mutex
}

// NewHyperliquidStream creates a new stream. metadata provides the symbols
// used by SubscribeQuote.
func NewHyperliquidStream(logger *slog.Logger, url string, metadata *Metadata) *HyperliquidStream {
	return &HyperliquidStream{
		logger:        logger,
		url:           url,
		metadata:      metadata,
		dial:          dialWebsocket,
		subscriptions: make(map[Subscription]struct{}),
	}
}

// Metadata returns the metadata the stream resolves products with.
func (s *HyperliquidStream) Metadata() *Metadata {
	return s.metadata
}

// Connect opens the websocket connection.
func (s *HyperliquidStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	s.logger.Info("HyperliquidStream: connecting to WebSocket", "url", s.url)
	c, err := s.dial(ctx, s.url)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	s.conn = &onceConn{Conn: c}
	s.logger.Info("HyperliquidStream: connected successfully", "url", s.url)
	return nil
}

// Close closes the connection. It is safe to call more than once.
func (s *HyperliquidStream) Close() error {
	s.mu.Lock()
	c := s.conn
	s.conn = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}

// drop forgets c if it is still the active connection and closes it.
func (s *HyperliquidStream) drop(c *onceConn) {
	s.mu.Lock()
	if s.conn == c {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = c.Close()
}

func (s *HyperliquidStream) activeConn() (*onceConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, fmt.Errorf("HyperliquidStream: %w", ErrNotConnected)
	}
	return s.conn, nil
}

func (s *HyperliquidStream) send(ctx context.Context, frame controlFrame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := s.activeConn()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return c.WriteJSON(frame)
}

// Subscribe sends a subscribe frame and tracks the subscription.
func (s *HyperliquidStream) Subscribe(ctx context.Context, sub Subscription) error {
	if err := s.send(ctx, controlFrame{Method: "subscribe", Subscription: sub}); err != nil {
		return fmt.Errorf("subscribe %s %s: %w", sub.Type, sub.Coin, err)
	}

	s.mu.Lock()
	s.subscriptions[sub] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("HyperliquidStream: subscribed", "type", sub.Type, "coin", sub.Coin)
	return nil
}

// Unsubscribe sends an unsubscribe frame and forgets the subscription.
// Forgetting an untracked subscription is not an error.
func (s *HyperliquidStream) Unsubscribe(ctx context.Context, sub Subscription) error {
	if err := s.send(ctx, controlFrame{Method: "unsubscribe", Subscription: sub}); err != nil {
		return fmt.Errorf("unsubscribe %s %s: %w", sub.Type, sub.Coin, err)
	}

	s.mu.Lock()
	delete(s.subscriptions, sub)
	s.mu.Unlock()

	s.logger.Info("HyperliquidStream: unsubscribed", "type", sub.Type, "coin", sub.Coin)
	return nil
}

func (s *HyperliquidStream) quoteSubscription(p model.Product) (Subscription, error) {
	md, ok := s.metadata.Lookup(p)
	if !ok {
		return Subscription{}, fmt.Errorf("%s: %w", p, ErrUnresolvedProduct)
	}
	return Subscription{Type: ChannelBBO, Coin: md.Symbol}, nil
}

// SubscribeQuote subscribes to best bid/offer updates for a product. Nothing is
// sent when the product has no metadata.
func (s *HyperliquidStream) SubscribeQuote(ctx context.Context, p model.Product) error {
	sub, err := s.quoteSubscription(p)
	if err != nil {
		return err
	}
	return s.Subscribe(ctx, sub)
}

// UnsubscribeQuote stops best bid/offer updates for a product.
func (s *HyperliquidStream) UnsubscribeQuote(ctx context.Context, p model.Product) error {
	sub, err := s.quoteSubscription(p)
	if err != nil {
		return err
	}
	return s.Unsubscribe(ctx, sub)
}

// Subscriptions returns the active subscriptions.
func (s *HyperliquidStream) Subscriptions() []Subscription {
	s.mu.Lock()
	subs := make([]Subscription, 0, len(s.subscriptions))
	for sub := range s.subscriptions {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Type != subs[j].Type {
			return subs[i].Type < subs[j].Type
		}
		return subs[i].Coin < subs[j].Coin
	})
	return subs
}

// Receive yields inbound frames in arrival order until the connection fails
// or ctx is cancelled; the final error is yielded once and the connection is
// released. Messages that are not JSON are skipped. There is no read timeout.
func (s *HyperliquidStream) Receive(ctx context.Context) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		c, err := s.activeConn()
		if err != nil {
			yield(Frame{}, err)
			return
		}

		stop := context.AfterFunc(ctx, func() { s.drop(c) })
		defer stop()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				s.drop(c)
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				yield(Frame{}, fmt.Errorf("read: %w", err))
				return
			}

			var frame Frame
			if err := json.Unmarshal(msg, &frame); err != nil {
				s.logger.Warn("HyperliquidStream: failed to parse message", "error", err, "message", string(msg))
				continue
			}

			if !yield(frame, nil) {
				return
			}
		}
	}
}
