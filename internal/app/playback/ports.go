package playback

import (
	"context"
	"time"

	"github.com/osa030/19cast/internal/domain/playlist"
	"github.com/osa030/19cast/internal/domain/track"
)

// Gateway opens voice sessions.
type Gateway interface {
	// Connect joins (or moves to) the given voice channel. Implementations
	// return the same Session while a connection for the guild is alive.
	Connect(ctx context.Context, channelID string) (Session, error)
}

// Session is a live voice connection that can host one audio pipe.
type Session interface {
	ChannelID() string
	IsConnected() bool
	Disconnect() error
	// StartPipe begins rendering stream at volume (0.0-1.0). onComplete is
	// invoked exactly once, from the pipe's own goroutine, after Done is closed.
	StartPipe(stream track.Stream, volume float64, onComplete func(error)) (Pipe, error)
}

// Pipe is a running audio pipe.
type Pipe interface {
	Stop()
	Pause()
	Resume()
	SetVolume(v float64)
	IsActive() bool
	IsPaused() bool
	Done() <-chan struct{}
}

// Result is a resolved on-demand track.
type Result struct {
	Metadata track.Metadata
	Stream   track.Stream
}

// Resolver turns queries into playable streams.
type Resolver interface {
	Resolve(ctx context.Context, query string) (Result, error)
	ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error)
}

// Prober checks that a live stream is reachable.
type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) error
}
