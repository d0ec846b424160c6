package notification

import (
	"time"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/track"
)

// Track is the track information carried by a notification.
type Track struct {
	Title         string `json:"title"`
	Uploader      string `json:"uploader,omitempty"`
	SourceRef     string `json:"source_ref"`
	DurationSec   int    `json:"duration_sec,omitempty"`
	Live          bool   `json:"live,omitempty"`
	RequesterName string `json:"requester_name,omitempty"`
	RequesterType string `json:"requester_type,omitempty"`
}

// Notification is a playback event as delivered to subscribers.
type Notification struct {
	SequenceNo uint64    `json:"sequence_no"`
	Type       string    `json:"type"`
	Mode       string    `json:"mode"`
	Message    string    `json:"message"`
	Position   int       `json:"position,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Track      *Track    `json:"track,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// FromEvent converts a controller event. The sequence number is assigned on broadcast.
func FromEvent(e playback.Event) *Notification {
	n := &Notification{
		Type:      e.Type.String(),
		Mode:      e.Mode.String(),
		Message:   e.Message,
		Position:  e.Position,
		Track:     TrackFrom(e.Track),
		Timestamp: time.Now(),
	}
	if e.Err != nil {
		n.ErrorKind = e.Err.Kind.String()
	}
	return n
}

// TrackFrom converts a descriptor, returning nil for nil.
func TrackFrom(d *track.Descriptor) *Track {
	if d == nil {
		return nil
	}
	return &Track{
		Title:         d.DisplayTitle(),
		Uploader:      d.Uploader,
		SourceRef:     d.SourceRef,
		DurationSec:   int(d.Duration / time.Second),
		Live:          d.IsLive(),
		RequesterName: d.Requester.Name,
		RequesterType: string(d.Requester.Type),
	}
}
