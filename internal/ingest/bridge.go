package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"janus/internal/database"
	"janus/internal/exchange"
	"janus/internal/model"
)

// Options configures a Bridge.
type Options struct {
	Products          []model.Product
	Retention         time.Duration
	ReconnectInterval time.Duration
	ProgressEvery     int
}

// Bridge streams quotes from an exchange into a sink. Every tick is written
// before the next frame is read, so a slow sink slows the stream down.
type Bridge struct {
	logger  *slog.Logger
	client  exchange.ExchangeClient
	sink    database.Sink
	metrics *Metrics
	opts    Options
	now     func() time.Time

	processed int
}

// NewBridge creates a new Bridge.
func NewBridge(logger *slog.Logger, client exchange.ExchangeClient, sink database.Sink, metrics *Metrics, opts Options) *Bridge {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 100
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Bridge{
		logger:  logger,
		client:  client,
		sink:    sink,
		metrics: metrics,
		opts:    opts,
		now:     time.Now,
	}
}

// Processed returns the number of ticks forwarded so far.
func (b *Bridge) Processed() int {
	return b.processed
}

// Run runs sessions until ctx is cancelled, waiting a fixed interval between
// attempts. Subscriptions are set up again by every new session.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		err := b.RunSession(ctx)
		if ctx.Err() != nil {
			b.logger.Info("Bridge: context cancelled, shutting down")
			return nil
		}

		b.logger.Error("Bridge: session lost", "exchange", b.client.GetName(), "error", err)
		b.logger.Info("Bridge: reconnecting", "backoff", b.opts.ReconnectInterval)

		select {
		case <-ctx.Done():
			b.logger.Info("Bridge: context cancelled, shutting down")
			return nil
		case <-time.After(b.opts.ReconnectInterval):
		}
	}
}

// RunSession opens one session, subscribes the configured products and
// forwards ticks until the stream ends. The session is always closed.
func (b *Bridge) RunSession(ctx context.Context) (err error) {
	session, err := b.client.Open(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			b.logger.Warn("Bridge: failed to close session", "error", cerr)
		}
	}()
	b.metrics.Sessions.Inc()

	router := NewRouter(session.Metadata(), b.opts.Products)
	for _, p := range b.opts.Products {
		if err := session.SubscribeQuote(ctx, p); err != nil {
			if errors.Is(err, exchange.ErrUnresolvedProduct) {
				b.logger.Warn("Bridge: could not subscribe", "product", p, "error", err)
				continue
			}
			return err
		}
	}

	for _, p := range router.Products() {
		for _, side := range []model.Side{model.Bid, model.Ask} {
			key := SeriesKey(b.client.GetName(), p, side)
			if err := b.sink.EnsureSeries(ctx, key, b.opts.Retention); err != nil {
				return fmt.Errorf("ensure series: %w", err)
			}
		}
	}

	b.logger.Info("Bridge: starting BBO stream processing", "products", len(router.Products()))
	for frame, err := range session.Receive(ctx) {
		if err != nil {
			return err
		}
		b.HandleFrame(ctx, router, frame)
	}
	return errors.New("stream closed")
}

// HandleFrame parses, routes and forwards one frame. Frames that cannot be
// used are dropped.
func (b *Bridge) HandleFrame(ctx context.Context, router *Router, frame exchange.Frame) {
	quote, err := ParseQuote(frame, b.now())
	if errors.Is(err, ErrNotQuote) {
		return
	}
	if err != nil {
		b.logger.Warn("Bridge: dropping malformed quote", "error", err)
		b.metrics.FramesDropped.WithLabelValues("malformed").Inc()
		return
	}

	tick, ok := router.Route(quote)
	if !ok {
		b.logger.Debug("Bridge: unknown coin in message", "coin", quote.Symbol)
		b.metrics.FramesDropped.WithLabelValues("unknown_symbol").Inc()
		return
	}

	b.forward(ctx, tick)
}

func (b *Bridge) forward(ctx context.Context, tick model.QuoteTick) {
	name := b.client.GetName()
	ts := tick.ReceivedAt

	failed := false
	if err := b.sink.Append(ctx, SeriesKey(name, tick.Product, model.Bid), ts, tick.Bid); err != nil {
		b.logger.Error("Bridge: failed to write bid", "product", tick.Product, "error", err)
		failed = true
	}
	if err := b.sink.Append(ctx, SeriesKey(name, tick.Product, model.Ask), ts, tick.Ask); err != nil {
		b.logger.Error("Bridge: failed to write ask", "product", tick.Product, "error", err)
		failed = true
	}
	if failed {
		b.metrics.SinkErrors.Inc()
		return
	}

	b.metrics.TicksForwarded.WithLabelValues(tick.Product.String()).Inc()
	b.processed++
	if b.processed%b.opts.ProgressEvery == 0 {
		b.logger.Info("Bridge: processed BBO updates", "count", b.processed)
	}
}
