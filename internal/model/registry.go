package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateIdentity is returned when a name or alias is already taken by another coin.
	ErrDuplicateIdentity = errors.New("duplicate coin identity")
	// ErrUnknownIdentity is returned when no coin matches a name or alias.
	ErrUnknownIdentity = errors.New("unknown coin identity")
	// ErrRegistrySealed is returned when registering into a sealed registry.
	ErrRegistrySealed = errors.New("coin registry is sealed")
)

// Registry maps case-insensitive names and aliases onto canonical coins.
// It is populated once at startup and sealed before use.
type Registry struct {
	mu      sync.RWMutex
	keys    map[string]Coin
	aliases map[Coin][]string
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		keys:    make(map[string]Coin),
		aliases: make(map[Coin][]string),
	}
}

// Register adds a canonical coin. Either every key is added or none is.
func (r *Registry) Register(name string, aliases ...string) (Coin, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Coin{}, fmt.Errorf("register coin: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return Coin{}, fmt.Errorf("register %s: %w", name, ErrRegistrySealed)
	}

	coin := Coin{name: name}
	trimmed := make([]string, 0, len(aliases))
	keys := make(map[string]string, len(aliases)+1)
	keys[strings.ToLower(name)] = name
	for _, alias := range aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			return Coin{}, fmt.Errorf("register %s: empty alias", name)
		}
		trimmed = append(trimmed, alias)
		keys[strings.ToLower(alias)] = alias
	}

	for lower, k := range keys {
		if existing, ok := r.keys[lower]; ok {
			return Coin{}, fmt.Errorf("register %s: key %q already used by %s: %w", name, k, existing, ErrDuplicateIdentity)
		}
	}

	for lower := range keys {
		r.keys[lower] = coin
	}
	r.aliases[coin] = trimmed

	return coin, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, aliases ...string) Coin {
	coin, err := r.Register(name, aliases...)
	if err != nil {
		panic(err)
	}
	return coin
}

// Seal forbids any further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Resolve looks up a coin by name or alias, ignoring case.
func (r *Registry) Resolve(key string) (Coin, error) {
	r.mu.RLock()
	coin, ok := r.keys[strings.ToLower(strings.TrimSpace(key))]
	r.mu.RUnlock()

	if !ok {
		return Coin{}, fmt.Errorf("%q: %w", key, ErrUnknownIdentity)
	}
	return coin, nil
}

// Aliases returns the aliases a coin was registered with.
func (r *Registry) Aliases(c Coin) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.aliases[c]...)
}

// Coins returns every registered coin sorted by name.
func (r *Registry) Coins() []Coin {
	r.mu.RLock()
	coins := make([]Coin, 0, len(r.aliases))
	for c := range r.aliases {
		coins = append(coins, c)
	}
	r.mu.RUnlock()

	sort.Slice(coins, func(i, j int) bool { return coins[i].name < coins[j].name })
	return coins
}
