// Package playback provides the controller that owns the audio pipe and
// decides what plays next.
package playback

// Mode represents the session mode.
type Mode int

const (
	ModeIdle              Mode = iota // Nothing is rendering
	ModePlayingQueue                  // Rendering queued on-demand tracks
	ModePlayingLiveStream             // Rendering a live stream
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePlayingQueue:
		return "playing_queue"
	case ModePlayingLiveStream:
		return "playing_live_stream"
	default:
		return "unknown"
	}
}
