package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackdeck/internal/domain/track"
)

// Rejection records a track dropped by the chain.
type Rejection struct {
	Track  track.Track
	Filter string
	Code   string
	Detail string
}

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

// NewChainFromSettings creates a chain from registered filters keyed by name.
// Filters are added in name order so the result does not depend on map order.
func NewChainFromSettings(settings map[string]map[string]any) (*Chain, error) {
	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)

	c := NewChain()
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
		f := factory()
		if err := f.ValidateConfig(settings[name]); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		c.Add(f)
	}
	return c, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the candidate.
func (c *Chain) Execute(ctx context.Context, candidate track.Track, accepted []track.Track) (Result, string) {
	for _, f := range c.filters {
		result := f.Check(ctx, candidate, accepted)
		if !result.Accepted {
			return result, f.Name()
		}
	}
	return Accept(), ""
}

// Apply filters tracks in order, keeping the accepted ones.
func (c *Chain) Apply(ctx context.Context, tracks []track.Track) ([]track.Track, []Rejection) {
	kept := make([]track.Track, 0, len(tracks))
	var rejected []Rejection

	for _, t := range tracks {
		result, name := c.Execute(ctx, t, kept)
		if !result.Accepted {
			zlog.Debug().Msgf("filter: rejected track: id=%s title=%s filter=%s code=%s detail=%s", t.ID, t.Title, name, result.Code, result.Detail)
			rejected = append(rejected, Rejection{Track: t, Filter: name, Code: result.Code, Detail: result.Detail})
			continue
		}
		kept = append(kept, t)
	}
	return kept, rejected
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
