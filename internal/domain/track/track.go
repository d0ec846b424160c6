// Package track provides the track descriptor domain entity.
package track

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidTransition is returned when a resolution state change is not allowed.
var ErrInvalidTransition = errors.New("invalid resolution transition")

// Kind distinguishes on-demand tracks from live streams.
type Kind int

const (
	KindOnDemand   Kind = iota // Resolved from a search or page URL
	KindLiveStream             // Continuous stream endpoint
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindOnDemand:
		return "on_demand"
	case KindLiveStream:
		return "live_stream"
	default:
		return "unknown"
	}
}

// ResolutionState is the lazily-advanced resolution state of a descriptor.
type ResolutionState int

const (
	StateUnresolved ResolutionState = iota
	StateResolving
	StateResolved
	StateFailed
)

// String returns the string representation of the state.
func (s ResolutionState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RequesterType represents the type of requester.
type RequesterType string

const (
	RequesterTypeUser     RequesterType = "USER"
	RequesterTypeAdmin    RequesterType = "ADMIN"
	RequesterTypePresence RequesterType = "PRESENCE"
)

// Requester represents who asked for the track.
type Requester struct {
	ID   string        // Chat user ID (empty for system requests)
	Name string        // Display name
	Type RequesterType // Type of requester
}

// Stream is a playable handle produced by resolution.
type Stream struct {
	URL     string
	Headers map[string]string // HTTP headers the transcoder must send
	Live    bool
}

// Metadata is the display information known about a track.
type Metadata struct {
	Title     string
	Uploader  string
	SourceRef string        // Search query, page URL or stream endpoint
	Duration  time.Duration // Zero when unknown
}

// Descriptor describes one playable unit.
// Everything except the resolution state is fixed at construction.
type Descriptor struct {
	Kind      Kind
	Title     string
	Uploader  string
	SourceRef string
	Duration  time.Duration
	Requester Requester
	AddedAt   time.Time

	state   ResolutionState
	stream  Stream
	failure string
}

// NewOnDemand creates an unresolved on-demand descriptor.
func NewOnDemand(meta Metadata, requester Requester) *Descriptor {
	return &Descriptor{
		Kind:      KindOnDemand,
		Title:     meta.Title,
		Uploader:  meta.Uploader,
		SourceRef: meta.SourceRef,
		Duration:  meta.Duration,
		Requester: requester,
		AddedAt:   time.Now(),
		state:     StateUnresolved,
	}
}

// NewResolved creates an on-demand descriptor whose stream is already known.
func NewResolved(meta Metadata, stream Stream, requester Requester) *Descriptor {
	d := NewOnDemand(meta, requester)
	d.state = StateResolved
	d.stream = stream
	return d
}

// NewLiveStream creates a resolved live stream descriptor.
func NewLiveStream(url string, requester Requester) *Descriptor {
	return &Descriptor{
		Kind:      KindLiveStream,
		Title:     url,
		SourceRef: url,
		Requester: requester,
		AddedAt:   time.Now(),
		state:     StateResolved,
		stream:    Stream{URL: url, Live: true},
	}
}

// State returns the resolution state.
func (d *Descriptor) State() ResolutionState {
	return d.state
}

// BeginResolve marks the descriptor as being resolved.
func (d *Descriptor) BeginResolve() error {
	if d.state != StateUnresolved {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", d.state, StateResolving)
	}
	d.state = StateResolving
	return nil
}

// Resolve attaches the resolved stream. It succeeds only once.
func (d *Descriptor) Resolve(stream Stream) error {
	if d.state != StateResolving {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", d.state, StateResolved)
	}
	d.state = StateResolved
	d.stream = stream
	return nil
}

// Fail records a terminal resolution failure.
func (d *Descriptor) Fail(reason string) error {
	if d.state != StateResolving {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", d.state, StateFailed)
	}
	d.state = StateFailed
	d.failure = reason
	return nil
}

// Stream returns the resolved stream, if any.
func (d *Descriptor) Stream() (Stream, bool) {
	if d.state != StateResolved {
		return Stream{}, false
	}
	return d.stream, true
}

// FailureReason returns the reason recorded by Fail.
func (d *Descriptor) FailureReason() string {
	return d.failure
}

// IsLive reports whether the descriptor is a live stream.
func (d *Descriptor) IsLive() bool {
	return d.Kind == KindLiveStream
}

// DisplayTitle returns the title, or a placeholder when it is unknown.
func (d *Descriptor) DisplayTitle() string {
	if d.Title == "" {
		return "Unknown"
	}
	return d.Title
}

// DisplayUploader returns the uploader, or a placeholder when it is unknown.
func (d *Descriptor) DisplayUploader() string {
	if d.Uploader == "" {
		return "Unknown Artist"
	}
	return d.Uploader
}
