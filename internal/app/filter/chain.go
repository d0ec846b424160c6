package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/domain/track"
	"github.com/osa030/19cast/internal/infra/config"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain from the enabled filters in cfg, in
// registry name order. Unknown filter names are an error.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	for name := range cfg.Filters {
		if _, ok := registry[name]; !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
	}

	chain := NewChain()
	for _, name := range RegisteredNames() {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		f := registry[name]()
		if err := f.ValidateConfig(cfg.Filters[name].Settings); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		chain.Add(f)
		zlog.Info().Msgf("registered filter: name=%s", name)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the request.
// Filters are only applied if they declare they apply to the track's requester type.
func (c *Chain) Execute(ctx context.Context, t *track.Descriptor, q QueueView) Result {
	if c == nil {
		return Accept()
	}
	for _, f := range c.filters {
		if !f.AppliesTo(t.Requester.Type) {
			continue
		}

		result := f.Check(ctx, t, q)
		if !result.Accepted {
			zlog.Debug().Msgf("filter rejected track: filter=%s code=%s title=%s", f.Name(), result.Code, t.Title)
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
