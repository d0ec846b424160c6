// Package resolve turns user queries into playable tracks and playlists
// through an ordered chain of providers.
package resolve

import (
	"context"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/playlist"
	"github.com/osa030/19cast/internal/domain/track"
	"github.com/osa030/19cast/internal/infra/spotify"
)

// Provider is the interface for query resolvers.
// Different implementations understand different kinds of queries
// (e.g., plain searches and page URLs, Spotify links).
type Provider interface {
	// Name returns the provider type (used in config).
	Name() string

	// Match reports whether the provider understands query.
	Match(query string) bool

	// Resolve returns a playable stream and its metadata.
	Resolve(ctx context.Context, query string) (playback.Result, error)

	// ResolvePlaylist lists up to max entries without resolving them.
	ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error)
}

// YtdlpClient defines the yt-dlp operations needed by providers.
type YtdlpClient interface {
	Resolve(ctx context.Context, query string) (track.Metadata, track.Stream, error)
	ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error)
}

// SpotifyClient defines the Spotify operations needed by providers.
type SpotifyClient interface {
	GetTrack(ctx context.Context, trackID string) (*spotify.Track, error)
	GetPlaylist(ctx context.Context, playlistURL string, max int) (*spotify.Playlist, error)
}

// Descriptions lists the supported provider types.
var Descriptions = map[string]string{
	"ytdlp":   "Searches and page URLs extracted with yt-dlp",
	"spotify": "Spotify track and playlist links, played through a yt-dlp search",
}
