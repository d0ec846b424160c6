// Package ytdlp resolves media pages and searches through the yt-dlp CLI.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/domain/playlist"
	"github.com/osa030/19cast/internal/domain/track"
)

// ErrNoResults is returned when yt-dlp finds nothing for a query.
var ErrNoResults = errors.New("no results")

// Runner executes yt-dlp with args and returns its standard output.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// Config represents yt-dlp client configuration.
type Config struct {
	Path         string // Executable, default "yt-dlp"
	Format       string // Format selector, default "bestaudio/best"
	SearchPrefix string // Prefix for plain-text queries, default "ytsearch1:"
}

// Client runs yt-dlp.
type Client struct {
	config Config
	run    Runner
}

// New creates a client that executes the yt-dlp binary.
func New(cfg Config) *Client {
	cfg = withDefaults(cfg)
	return NewWithRunner(cfg, ExecRunner(cfg.Path))
}

// NewWithRunner creates a client with a custom runner.
func NewWithRunner(cfg Config, run Runner) *Client {
	return &Client{config: withDefaults(cfg), run: run}
}

func withDefaults(cfg Config) Config {
	if cfg.Path == "" {
		cfg.Path = "yt-dlp"
	}
	if cfg.Format == "" {
		cfg.Format = "bestaudio/best"
	}
	if cfg.SearchPrefix == "" {
		cfg.SearchPrefix = "ytsearch1:"
	}
	return cfg
}

// ExecRunner returns a Runner that executes the binary at path.
func ExecRunner(path string) Runner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, path, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			msg := lastLine(stderr.String())
			if msg == "" {
				return nil, errors.Wrap(err, "yt-dlp failed")
			}
			return nil, errors.Wrapf(err, "yt-dlp failed: %s", msg)
		}
		return out, nil
	}
}

type format struct {
	URL         string            `json:"url"`
	Acodec      string            `json:"acodec"`
	HTTPHeaders map[string]string `json:"http_headers"`
}

type videoInfo struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Uploader    string            `json:"uploader"`
	Channel     string            `json:"channel"`
	WebpageURL  string            `json:"webpage_url"`
	URL         string            `json:"url"`
	Duration    float64           `json:"duration"`
	IsLive      bool              `json:"is_live"`
	HTTPHeaders map[string]string `json:"http_headers"`
	Formats     []format          `json:"formats"`
}

type playlistEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
	Duration   float64 `json:"duration"`
}

type playlistInfo struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	WebpageURL string           `json:"webpage_url"`
	Entries    []*playlistEntry `json:"entries"`
}

// Resolve returns the metadata and the direct media URL for query. Plain
// text is searched; URLs are extracted directly.
func (c *Client) Resolve(ctx context.Context, query string) (track.Metadata, track.Stream, error) {
	target := c.target(query)
	out, err := c.run(ctx, "-j", "-f", c.config.Format, "--no-playlist", "--no-warnings", target)
	if err != nil {
		return track.Metadata{}, track.Stream{}, errors.Wrapf(err, "failed to resolve %s", query)
	}

	line := firstLine(out)
	if len(line) == 0 {
		return track.Metadata{}, track.Stream{}, errors.Wrapf(ErrNoResults, "query %s", query)
	}

	var info videoInfo
	if err := json.Unmarshal(line, &info); err != nil {
		return track.Metadata{}, track.Stream{}, errors.Wrap(err, "failed to parse yt-dlp output")
	}

	stream := track.Stream{URL: strings.TrimSpace(info.URL), Headers: info.HTTPHeaders, Live: info.IsLive}
	if stream.URL == "" {
		for _, f := range info.Formats {
			if f.URL != "" && f.Acodec != "none" {
				stream.URL = f.URL
				if len(f.HTTPHeaders) > 0 {
					stream.Headers = f.HTTPHeaders
				}
				break
			}
		}
	}
	if stream.URL == "" {
		return track.Metadata{}, track.Stream{}, errors.Newf("empty URL returned from yt-dlp for %s", query)
	}

	ref := info.WebpageURL
	if ref == "" {
		ref = query
	}
	meta := track.Metadata{
		Title:     info.Title,
		Uploader:  firstNonEmpty(info.Uploader, info.Channel),
		SourceRef: ref,
		Duration:  seconds(info.Duration),
	}
	zlog.Debug().Msgf("yt-dlp resolved: query=%s title=%s duration=%s", query, meta.Title, meta.Duration)
	return meta, stream, nil
}

// ResolvePlaylist lists up to max entries of a playlist without resolving them.
func (c *Client) ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error) {
	args := []string{"-J", "--flat-playlist", "--no-warnings"}
	if max > 0 {
		args = append(args, "--playlist-end", strconv.Itoa(max))
	}
	args = append(args, c.target(query))

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load playlist %s", query)
	}

	var info playlistInfo
	if err := json.Unmarshal(bytes.TrimSpace(out), &info); err != nil {
		return nil, errors.Wrap(err, "failed to parse yt-dlp playlist output")
	}

	pl := &playlist.Playlist{
		Title:     info.Title,
		SourceRef: firstNonEmpty(info.WebpageURL, query),
		Entries:   make([]track.Metadata, 0, len(info.Entries)),
	}
	for _, e := range info.Entries {
		if e == nil {
			continue
		}
		ref := firstNonEmpty(e.WebpageURL, e.URL)
		if ref == "" && e.ID != "" {
			ref = "https://www.youtube.com/watch?v=" + e.ID
		}
		pl.Entries = append(pl.Entries, track.Metadata{
			Title:     e.Title,
			Uploader:  firstNonEmpty(e.Uploader, e.Channel),
			SourceRef: ref,
			Duration:  seconds(e.Duration),
		})
	}
	pl.Truncate(max)
	if len(pl.Entries) == 0 {
		return nil, errors.Wrapf(ErrNoResults, "playlist %s", query)
	}
	return pl, nil
}

func (c *Client) target(query string) string {
	query = strings.TrimSpace(query)
	if isURL(query) || strings.HasPrefix(query, "ytsearch") || strings.HasPrefix(query, "scsearch") {
		return query
	}
	return c.config.SearchPrefix + query
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstLine(out []byte) []byte {
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			return line
		}
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
