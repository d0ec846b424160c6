package resolve

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/playlist"
	"github.com/osa030/19cast/internal/infra/ytdlp"
)

type YtdlpProviderConfig struct {
	Path         string `yaml:"path" mapstructure:"path" default:"yt-dlp"`
	Format       string `yaml:"format" mapstructure:"format" default:"bestaudio/best"`
	SearchPrefix string `yaml:"search_prefix" mapstructure:"search_prefix" default:"ytsearch1:" validate:"endswith=:"`
}

// YtdlpProvider resolves searches and page URLs with yt-dlp.
// It accepts every query and is normally the last provider in the chain.
type YtdlpProvider struct {
	client YtdlpClient
}

// NewYtdlpProvider creates a new YtdlpProvider.
func NewYtdlpProvider(settings map[string]any) (*YtdlpProvider, error) {
	var config YtdlpProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("ytdlp provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("ytdlp provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	return &YtdlpProvider{
		client: ytdlp.New(ytdlp.Config{
			Path:         config.Path,
			Format:       config.Format,
			SearchPrefix: config.SearchPrefix,
		}),
	}, nil
}

func (p *YtdlpProvider) Name() string {
	return "ytdlp"
}

func (p *YtdlpProvider) Match(query string) bool {
	return true
}

func (p *YtdlpProvider) Resolve(ctx context.Context, query string) (playback.Result, error) {
	meta, stream, err := p.client.Resolve(ctx, query)
	if err != nil {
		return playback.Result{}, err
	}
	return playback.Result{Metadata: meta, Stream: stream}, nil
}

func (p *YtdlpProvider) ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error) {
	return p.client.ResolvePlaylist(ctx, query, max)
}
