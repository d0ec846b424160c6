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
	"github.com/osa030/19cast/internal/domain/track"
	"github.com/osa030/19cast/internal/infra/spotify"
)

// searchPrefix turns Spotify metadata into a single-result yt-dlp search.
const searchPrefix = "ytsearch1:"

type SpotifyProviderConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret" validate:"required"`
	Market       string `yaml:"market" mapstructure:"market" default:"US" validate:"len=2"`
}

// SpotifyProvider handles Spotify links. Spotify does not serve audio, so
// tracks are looked up by "artist - title" through the fallback provider.
type SpotifyProvider struct {
	client   SpotifyClient
	fallback YtdlpClient
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(ctx context.Context, fallback YtdlpClient, settings map[string]any) (*SpotifyProvider, error) {
	if fallback == nil {
		return nil, errors.New("spotify provider requires a ytdlp provider")
	}

	var config SpotifyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("spotify provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	client, err := spotify.New(ctx, spotify.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Market:       config.Market,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create spotify client")
	}

	return &SpotifyProvider{
		client:   client,
		fallback: fallback,
	}, nil
}

func (p *SpotifyProvider) Name() string {
	return "spotify"
}

func (p *SpotifyProvider) Match(query string) bool {
	return spotify.IsTrackLink(query) || spotify.IsPlaylistLink(query)
}

func (p *SpotifyProvider) Resolve(ctx context.Context, query string) (playback.Result, error) {
	if !spotify.IsTrackLink(query) {
		return playback.Result{}, errors.Newf("not a spotify track link: %s", query)
	}

	t, err := p.client.GetTrack(ctx, query)
	if err != nil {
		return playback.Result{}, err
	}

	_, stream, err := p.fallback.Resolve(ctx, searchPrefix+t.SearchTerms())
	if err != nil {
		return playback.Result{}, errors.Wrapf(err, "no playable match for %s", t.SearchTerms())
	}

	return playback.Result{
		Metadata: track.Metadata{
			Title:     t.Name,
			Uploader:  t.Artist(),
			SourceRef: query,
			Duration:  t.Duration,
		},
		Stream: stream,
	}, nil
}

func (p *SpotifyProvider) ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error) {
	if !spotify.IsPlaylistLink(query) {
		return nil, errors.Newf("not a spotify playlist link: %s", query)
	}

	sp, err := p.client.GetPlaylist(ctx, query, max)
	if err != nil {
		return nil, err
	}

	pl := &playlist.Playlist{
		Title:     sp.Name,
		SourceRef: query,
		Entries:   make([]track.Metadata, 0, len(sp.Tracks)),
	}
	for _, t := range sp.Tracks {
		pl.Entries = append(pl.Entries, track.Metadata{
			Title:     t.Name,
			Uploader:  t.Artist(),
			SourceRef: searchPrefix + t.SearchTerms(),
			Duration:  t.Duration,
		})
	}
	pl.Truncate(max)
	if len(pl.Entries) == 0 {
		return nil, errors.Newf("spotify playlist %s has no playable tracks", query)
	}
	return pl, nil
}
