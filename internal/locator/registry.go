package locator

import (
	"fmt"
	"time"
)

// Registry keeps a mapping from target kinds to their rule chains.
type Registry struct {
	chains   map[Kind][]Rule
	interval time.Duration
}

// NewRegistry builds an empty registry polling at the given interval.
func NewRegistry(interval time.Duration) *Registry {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Registry{chains: map[Kind][]Rule{}, interval: interval}
}

// NewDefaultRegistry registers the built-in chains for the given link pattern.
func NewDefaultRegistry(linkPattern string, interval time.Duration) *Registry {
	r := NewRegistry(interval)
	for kind, rules := range Defaults(linkPattern) {
		r.Register(kind, rules)
	}
	return r
}

// Register adds or replaces the chain for kind.
func (r *Registry) Register(kind Kind, rules []Rule) {
	if r.chains == nil {
		r.chains = map[Kind][]Rule{}
	}
	r.chains[kind] = append([]Rule(nil), rules...)
}

// Resolve returns the chain for kind or an error if it is absent.
func (r *Registry) Resolve(kind Kind) (Chain, error) {
	if rules, ok := r.chains[kind]; ok {
		return Chain{Kind: kind, Rules: rules, Interval: r.interval}, nil
	}
	return Chain{}, fmt.Errorf("locator chain %s is not registered", kind)
}
