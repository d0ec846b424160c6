// Package spotify provides a client for the Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Track is the Spotify metadata needed to find a track elsewhere.
type Track struct {
	ID       string
	Name     string
	Artists  []string
	Album    string
	Duration time.Duration
	URL      string
}

// Artist returns the first artist, or an empty string.
func (t Track) Artist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// SearchTerms returns "artist - name" for searching other catalogues.
func (t Track) SearchTerms() string {
	if a := t.Artist(); a != "" {
		return a + " - " + t.Name
	}
	return t.Name
}

// Playlist is a named list of tracks.
type Playlist struct {
	ID     string
	Name   string
	Tracks []Track
}

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Market       string
}

// New creates a new Spotify client using the client credentials flow.
// Only public catalogue data is reachable with it.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	oauthCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Get HTTP client with auto-refresh capability
	httpClient := oauthCfg.Client(ctx)
	client := spotify.New(httpClient, spotify.WithRetry(false))

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	return &Client{
		client:     client,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// GetTrack retrieves track information by ID, URL, or URI.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*Track, error) {
	id := extractTrackID(trackID)
	if id == "" {
		return nil, errors.New("invalid track URL")
	}

	var result *spotify.FullTrack
	err := c.retry(func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get track")
	}

	return convertTrack(result), nil
}

// GetPlaylist retrieves the playlist name and up to max tracks.
// A non-positive max fetches every track.
func (c *Client) GetPlaylist(ctx context.Context, playlistURL string, max int) (*Playlist, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var full *spotify.FullPlaylist
	err := c.retry(func() error {
		p, err := c.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("id,name"))
		if err != nil {
			return err
		}
		full = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "playlist does not exist or is not accessible")
	}

	pl := &Playlist{ID: playlistID, Name: full.Name}
	offset := 0
	limit := 100

	for max <= 0 || len(pl.Tracks) < max {
		var page *spotify.PlaylistItemPage
		err := c.retry(func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Only process tracks (exclude episodes)
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				pl.Tracks = append(pl.Tracks, *convertTrack(item.Track.Track))
			}
		}

		if len(page.Items) < limit {
			break
		}
		offset += limit
	}

	if max > 0 && len(pl.Tracks) > max {
		pl.Tracks = pl.Tracks[:max]
	}
	return pl, nil
}

// convertTrack converts a Spotify FullTrack to Track.
func convertTrack(t *spotify.FullTrack) *Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return &Track{
		ID:       string(t.ID),
		Name:     t.Name,
		Artists:  artists,
		Album:    t.Album.Name,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		URL:      GetTrackURL(string(t.ID)),
	}
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// IsTrackLink reports whether input is a Spotify track URL or URI.
func IsTrackLink(input string) bool {
	input = strings.TrimSpace(input)
	return strings.HasPrefix(input, "spotify:track:") ||
		(strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/"))
}

// IsPlaylistLink reports whether input is a Spotify playlist URL or URI.
func IsPlaylistLink(input string) bool {
	input = strings.TrimSpace(input)
	return strings.HasPrefix(input, "spotify:playlist:") ||
		(strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/"))
}

// retry retries an operation with exponential backoff.
func (c *Client) retry(fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay * time.Duration(i+1))
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	return extractID(input, "track")
}

// extractID handles spotify:KIND:ID URIs and https://open.spotify.com[/intl-XX]/KIND/ID URLs.
// Anything else is assumed to be an ID already.
func extractID(input, kind string) string {
	input = strings.TrimSpace(input)
	if uri := "spotify:" + kind + ":"; strings.HasPrefix(input, uri) {
		return strings.TrimPrefix(input, uri)
	}

	sep := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, sep) {
		parts := strings.Split(input, sep)
		// Remove query parameters and trailing slashes
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
