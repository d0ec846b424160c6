package playback

import "github.com/osa030/19cast/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted     EventType = iota // Queued track began rendering
	EventTrackQueued                       // Track appended behind the current one
	EventPlaylistQueued                    // Playlist entries appended
	EventQueueFinished                     // Completion found nothing left to play
	EventModeChanged                       // Left the live stream for the queue
	EventStreamConnecting                  // Live stream probe started
	EventStreamStarted                     // Live stream began rendering
	EventStreamEnded                       // Live stream pipe terminated on its own
	EventSuperseded                        // Request dropped in favour of a newer one
	EventStopped                           // Session torn down
	EventSkipped                           // Current track stopped by request
	EventPaused
	EventResumed
	EventVolumeChanged
	EventCleared // Pending queue emptied
	EventError   // Classified failure, see Event.Err
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackQueued:
		return "track_queued"
	case EventPlaylistQueued:
		return "playlist_queued"
	case EventQueueFinished:
		return "queue_finished"
	case EventModeChanged:
		return "mode_changed"
	case EventStreamConnecting:
		return "stream_connecting"
	case EventStreamStarted:
		return "stream_started"
	case EventStreamEnded:
		return "stream_ended"
	case EventSuperseded:
		return "superseded"
	case EventStopped:
		return "stopped"
	case EventSkipped:
		return "skipped"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventCleared:
		return "cleared"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Mode     Mode              // Mode after the event
	Track    *track.Descriptor // Copy of the affected track (nil for some events)
	Position int               // Queue position for EventTrackQueued
	Message  string            // Human-readable announcement
	Err      *Error            // Set for EventError
}
