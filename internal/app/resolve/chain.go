package resolve

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/playlist"
)

// ErrUnsupported is returned when no provider matches a query.
var ErrUnsupported = errors.New("no resolver supports query")

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Chain tries matching providers in order until one succeeds.
type Chain struct {
	providers []ProviderWithMetadata
}

// NewChain creates a new provider chain.
func NewChain(providers []ProviderWithMetadata) *Chain {
	return &Chain{
		providers: providers,
	}
}

// Providers returns the configured providers in order.
func (c *Chain) Providers() []ProviderWithMetadata {
	return c.providers
}

// Resolve resolves query with the first matching provider that succeeds.
func (c *Chain) Resolve(ctx context.Context, query string) (playback.Result, error) {
	var lastErr error
	for i, pm := range c.providers {
		if !pm.Provider.Match(query) {
			continue
		}
		zlog.Debug().Msgf("trying resolver: index=%d total=%d name=%s query=%s",
			i+1, len(c.providers), pm.DisplayName, query)

		res, err := pm.Provider.Resolve(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return playback.Result{}, err
			}
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			lastErr = err
			continue
		}

		zlog.Info().Msgf("resolved: provider=%s title=%s", pm.DisplayName, res.Metadata.Title)
		return res, nil
	}

	if lastErr == nil {
		return playback.Result{}, errors.Wrapf(ErrUnsupported, "query %s", query)
	}
	return playback.Result{}, lastErr
}

// ResolvePlaylist lists query with the first matching provider that succeeds.
func (c *Chain) ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error) {
	var lastErr error
	for _, pm := range c.providers {
		if !pm.Provider.Match(query) {
			continue
		}

		pl, err := pm.Provider.ResolvePlaylist(ctx, query, max)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			lastErr = err
			continue
		}

		zlog.Info().Msgf("playlist loaded: provider=%s title=%s entries=%d", pm.DisplayName, pl.Title, len(pl.Entries))
		return pl, nil
	}

	if lastErr == nil {
		return nil, errors.Wrapf(ErrUnsupported, "query %s", query)
	}
	return nil, lastErr
}
