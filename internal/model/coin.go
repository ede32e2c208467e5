package model

// Coin is a canonical asset identity. Two coins are equal when their
// canonical names are equal; aliases live in the Registry that issued them.
type Coin struct {
	name string
}

// Name returns the canonical name of the coin.
func (c Coin) Name() string {
	return c.name
}

func (c Coin) String() string {
	return c.name
}

// IsZero reports whether c was never issued by a Registry.
func (c Coin) IsZero() bool {
	return c.name == ""
}
