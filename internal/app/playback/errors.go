package playback

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Errors returned synchronously by controller operations.
var (
	ErrEmptyQuery     = errors.New("query is empty")
	ErrNothingPlaying = errors.New("nothing is currently playing")
	ErrNothingPaused  = errors.New("nothing is currently paused")
	ErrSkipLive       = errors.New("cannot skip a live stream")
	ErrVolumeRange    = errors.New("volume must be between 0 and 100")
	ErrNotConnected   = errors.New("not connected to a voice channel")
	ErrNoChannel      = errors.New("no voice channel given")
)

// ErrorKind classifies failures reported by the controller.
type ErrorKind int

const (
	KindResolution ErrorKind = iota
	KindConnect
	KindPipe
	KindProbe
	KindUnexpectedTermination
	KindRejected
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindConnect:
		return "connect"
	case KindPipe:
		return "pipe"
	case KindProbe:
		return "probe"
	case KindUnexpectedTermination:
		return "unexpected_termination"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is a classified failure naming the operation and its target.
type Error struct {
	Kind   ErrorKind
	Op     string // e.g. "play", "stream", "connect"
	Target string // Track title, query, URL or channel ID
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Kind, e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage renders the failure as a single human-readable line.
func (e *Error) UserMessage() string {
	reason := "unknown error"
	if e.Err != nil {
		reason = e.Err.Error()
	}
	switch e.Kind {
	case KindResolution:
		return fmt.Sprintf("❌ Could not find or play: **%s** (%s)", e.Target, reason)
	case KindConnect:
		return fmt.Sprintf("❌ Failed to connect to voice channel: %s", reason)
	case KindPipe:
		return fmt.Sprintf("❌ Failed to play: **%s** (%s)", e.Target, reason)
	case KindProbe:
		return fmt.Sprintf("❌ Stream not accessible: **%s** (%s)", e.Target, reason)
	case KindUnexpectedTermination:
		return fmt.Sprintf("❌ Stream ended unexpectedly: **%s** (%s)", e.Target, reason)
	case KindRejected:
		return fmt.Sprintf("🚫 **%s**: %s", e.Target, reason)
	default:
		return fmt.Sprintf("❌ %s failed: %s", e.Op, reason)
	}
}

func newError(kind ErrorKind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}
