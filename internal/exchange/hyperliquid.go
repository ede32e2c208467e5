package exchange

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"janus/internal/model"
)

// HyperliquidClient implements the ExchangeClient interface for Hyperliquid.
type HyperliquidClient struct {
	logger  *slog.Logger
	reg     *model.Registry
	apiURL  string
	wsURL   string
	timeout time.Duration
	dial    DialFunc
}

// NewHyperliquidClient creates a new HyperliquidClient.
func NewHyperliquidClient(logger *slog.Logger, env Env, timeout time.Duration, reg *model.Registry) *HyperliquidClient {
	return &HyperliquidClient{
		logger:  logger,
		reg:     reg,
		apiURL:  env.APIURL(),
		wsURL:   env.WSURL(),
		timeout: timeout,
		dial:    dialWebsocket,
	}
}

func (c *HyperliquidClient) GetName() string {
	return "hyperliquid"
}

// Open opens the REST session, resolves metadata and connects the stream.
// On failure everything acquired so far is released.
func (c *HyperliquidClient) Open(ctx context.Context) (_ Session, err error) {
	api := NewHyperliquidAPI(c.logger, c.apiURL, c.timeout)
	if err := api.Open(); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = api.Close()
		}
	}()

	md, err := NewMetadataResolver(c.logger, api, c.reg).Resolve(ctx)
	if err != nil {
		return nil, err
	}

	stream := NewHyperliquidStream(c.logger, c.wsURL, md)
	stream.dial = c.dial
	if err := stream.Connect(ctx); err != nil {
		return nil, err
	}

	return &hyperliquidSession{HyperliquidStream: stream, api: api}, nil
}

type hyperliquidSession struct {
	*HyperliquidStream
	api *HyperliquidAPI
}

func (s *hyperliquidSession) Close() error {
	return errors.Join(s.HyperliquidStream.Close(), s.api.Close())
}
