package resolve

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
// Providers keep their configured order. Spotify providers use the first
// ytdlp provider to find audio, so at least one ytdlp entry is required.
func NewChainFromConfig(ctx context.Context, cfg *config.Config) (*Chain, error) {
	if len(cfg.Resolvers) == 0 {
		return nil, errors.New("no resolvers configured")
	}

	var fallback *YtdlpProvider
	built := make([]Provider, len(cfg.Resolvers))
	for i, rcfg := range cfg.Resolvers {
		if rcfg.Type != "ytdlp" {
			continue
		}
		p, err := NewYtdlpProvider(rcfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create resolver (index %d, type %s)", i, rcfg.Type)
		}
		built[i] = p
		if fallback == nil {
			fallback = p
		}
	}

	var providers []ProviderWithMetadata
	for i, rcfg := range cfg.Resolvers {
		provider := built[i]
		zlog.Debug().Msgf("creating resolver: index=%d type=%s", i+1, rcfg.Type)
		switch rcfg.Type {
		case "ytdlp":
			// built above
		case "spotify":
			if fallback == nil {
				return nil, errors.Newf("spotify resolver needs a ytdlp resolver (index %d)", i)
			}
			p, err := NewSpotifyProvider(ctx, fallback.client, rcfg.Settings)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to create resolver (index %d, type %s)", i, rcfg.Type)
			}
			provider = p
		default:
			return nil, errors.Newf("unsupported resolver type: %s (resolver index %d)", rcfg.Type, i)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: rcfg.DisplayName,
		})
		zlog.Info().Msgf("registered resolver: index=%d type=%s display_name=%s", i+1, rcfg.Type, rcfg.DisplayName)
	}

	return NewChain(providers), nil
}
