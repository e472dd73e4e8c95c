// Package ementa locates an act's official abstract. Strategies are tried in
// order and the first accepted candidate wins.
package ementa

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrNotFound means a strategy produced no acceptable candidate
var ErrNotFound = errors.New("ementa not found")

// Strategy is one extraction tier
type Strategy interface {
	Name() string
	Extract(ctx context.Context, html, label string) (string, error)
}

// Result reports which tier answered and what the others returned
type Result struct {
	Text     string
	Strategy string
	Errs     []error
}

// Found reports whether any tier produced an ementa
func (r Result) Found() bool {
	return r.Text != ""
}

// Chain runs strategies in order
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain; nil strategies are skipped
func NewChain(strategies ...Strategy) *Chain {
	c := &Chain{}
	for _, s := range strategies {
		if s != nil {
			c.strategies = append(c.strategies, s)
		}
	}
	return c
}

// Strategies returns the tier names in order
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve tries every tier until one succeeds. A miss on every tier is not an
// error: the ementa stays pending and can be retried on a later snapshot.
func (c *Chain) Resolve(ctx context.Context, html, label string) Result {
	var res Result
	for _, s := range c.strategies {
		text, err := s.Extract(ctx, html, label)
		if err == nil && text != "" {
			res.Text = text
			res.Strategy = s.Name()
			return res
		}
		if err == nil {
			err = ErrNotFound
		}
		log.Debug().Err(err).Str("strategy", s.Name()).Str("act", label).Msg("Ementa tier missed")
		res.Errs = append(res.Errs, err)
	}
	return res
}

// Extract returns the ementa, or false when it is still pending
func (c *Chain) Extract(ctx context.Context, html, label string) (string, bool) {
	res := c.Resolve(ctx, html, label)
	return res.Text, res.Found()
}
