package model

// Canonical coins known to the default registry.
var (
	BTC  = Coin{name: "BTC"}
	ETH  = Coin{name: "ETH"}
	USDC = Coin{name: "USDC"}
	XRP  = Coin{name: "XRP"}
	SOL  = Coin{name: "SOL"}
	HYPE = Coin{name: "HYPE"}
)

var defaultCoins = []struct {
	coin    Coin
	aliases []string
}{
	{BTC, []string{"BTC", "BTC-USC", "Bitcoin"}},
	{ETH, []string{"ETH", "ETH-USC", "Ethereum"}},
	{USDC, []string{"USDC", "USD Coin"}},
	{XRP, []string{"XRP", "Ripple"}},
	{SOL, []string{"SOL", "Solana"}},
	{HYPE, []string{"HYPE", "Hyperliquid"}},
}

// DefaultRegistry returns a sealed registry holding the known coins.
func DefaultRegistry() (*Registry, error) {
	reg := NewRegistry()
	for _, c := range defaultCoins {
		if _, err := reg.Register(c.coin.Name(), c.aliases...); err != nil {
			return nil, err
		}
	}
	reg.Seal()
	return reg, nil
}
