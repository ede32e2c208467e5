package exchange

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEnv is returned for an environment other than dev or prod.
var ErrUnknownEnv = errors.New("unknown hyperliquid environment")

// Env selects the Hyperliquid deployment.
type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

// ParseEnv parses an environment name, ignoring case.
func ParseEnv(s string) (Env, error) {
	switch Env(strings.ToLower(strings.TrimSpace(s))) {
	case EnvDev:
		return EnvDev, nil
	case EnvProd:
		return EnvProd, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownEnv)
	}
}

// APIURL returns the REST base URL for the environment.
func (e Env) APIURL() string {
	if e == EnvProd {
		return "https://api.hyperliquid.xyz"
	}
	return "https://api.hyperliquid-testnet.xyz"
}

// WSURL returns the websocket URL for the environment.
func (e Env) WSURL() string {
	if e == EnvProd {
		return "wss://api.hyperliquid.xyz/ws"
	}
	return "wss://api.hyperliquid-testnet.xyz/ws"
}
