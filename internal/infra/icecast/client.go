// Package icecast reads Icecast server status and checks stream reachability.
package icecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Unknown is reported when the server status cannot be read.
const Unknown = "Unknown"

// Client talks to one Icecast server.
type Client struct {
	streamURL  string
	statusURL  string
	httpClient *http.Client
}

// New creates a client for the server hosting streamURL.
func New(streamURL string) *Client {
	return &Client{
		streamURL:  streamURL,
		statusURL:  StatusURL(streamURL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup describes whichever stream is playing, keeping one client per stream URL.
type Lookup struct {
	mu      sync.Mutex
	clients map[string]*Client
}

// NewLookup creates a lookup.
func NewLookup() *Lookup {
	return &Lookup{clients: make(map[string]*Client)}
}

// NowPlaying describes what streamURL is playing.
func (l *Lookup) NowPlaying(ctx context.Context, streamURL string) (string, error) {
	l.mu.Lock()
	c, ok := l.clients[streamURL]
	if !ok {
		c = New(streamURL)
		l.clients[streamURL] = c
	}
	l.mu.Unlock()
	return c.NowPlaying(ctx)
}

// StatusURL returns the status-json.xsl endpoint next to the mount in streamURL.
func StatusURL(streamURL string) string {
	base := streamURL
	if i := strings.LastIndex(streamURL, "/"); i >= 0 {
		base = streamURL[:i]
	}
	return base + "/status-json.xsl"
}

type icestats struct {
	Artist     string          `json:"artist"`
	Title      string          `json:"title"`
	ServerName string          `json:"server_name"`
	Host       string          `json:"host"`
	Source     json.RawMessage `json:"source"`
}

type source struct {
	Artist     string `json:"artist"`
	Title      string `json:"title"`
	ServerName string `json:"server_name"`
	ListenURL  string `json:"listenurl"`
}

type status struct {
	Icestats *icestats `json:"icestats"`
}

// NowPlaying returns a short description of what the stream is playing:
// "artist : title", the server name, or "host : mount".
func (c *Client) NowPlaying(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL, nil)
	if err != nil {
		return Unknown, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Unknown, errors.Wrap(err, "failed to fetch icecast status")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unknown, errors.Newf("failed to fetch icecast status: status=%d", resp.StatusCode)
	}

	var st status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return Unknown, errors.Wrap(err, "failed to parse icecast status")
	}
	if st.Icestats == nil {
		return Unknown, nil
	}
	return c.describe(st.Icestats), nil
}

func (c *Client) describe(s *icestats) string {
	if s.Artist != "" && s.Title != "" {
		return fmt.Sprintf("%s : %s", s.Artist, s.Title)
	}

	if src, ok := c.mountSource(s.Source); ok {
		if src.Artist != "" && src.Title != "" {
			return fmt.Sprintf("%s : %s", src.Artist, src.Title)
		}
		if src.Title != "" {
			return src.Title
		}
		if src.ServerName != "" {
			return src.ServerName
		}
	}

	if s.ServerName != "" {
		return s.ServerName
	}

	host := s.Host
	if host == "" {
		host = "unknown host"
	}
	return fmt.Sprintf("%s : %s", host, mount(c.streamURL))
}

// mountSource picks the source entry for our mount. Icecast reports a single
// source as an object and several as an array.
func (c *Client) mountSource(raw json.RawMessage) (source, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return source{}, false
	}

	var sources []source
	if err := json.Unmarshal(raw, &sources); err != nil {
		var single source
		if err := json.Unmarshal(raw, &single); err != nil {
			zlog.Debug().Msgf("unexpected icecast source entry: %v", err)
			return source{}, false
		}
		sources = []source{single}
	}

	m := "/" + mount(c.streamURL)
	for _, s := range sources {
		if strings.HasSuffix(s.ListenURL, m) {
			return s, true
		}
	}
	if len(sources) == 1 {
		return sources[0], true
	}
	return source{}, false
}

func mount(streamURL string) string {
	if i := strings.LastIndex(streamURL, "/"); i >= 0 {
		return streamURL[i+1:]
	}
	return streamURL
}

// Prober checks that a stream URL answers with 200 OK.
type Prober struct {
	httpClient *http.Client
}

// NewProber creates a prober.
func NewProber() *Prober {
	return &Prober{httpClient: &http.Client{}}
}

// Probe issues a GET to url and closes the body without reading it.
func (p *Prober) Probe(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "invalid stream URL")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "stream not reachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("stream returned status %d", resp.StatusCode)
	}
	return nil
}
