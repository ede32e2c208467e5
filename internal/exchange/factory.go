package exchange

import (
	"fmt"
	"log/slog"

	"janus/internal/config"
	"janus/internal/model"
)

// NewClient creates a new exchange client based on the given name and configuration.
func NewClient(name string, logger *slog.Logger, cfg *config.ExchangeConfig, reg *model.Registry) (ExchangeClient, error) {
	switch name {
	case "hyperliquid":
		env, err := ParseEnv(cfg.Env)
		if err != nil {
			return nil, err
		}
		return NewHyperliquidClient(logger, env, cfg.Timeout(), reg), nil
	default:
		return nil, fmt.Errorf("unknown exchange: %s", name)
	}
}
