package connect

import "github.com/osa030/19cast/internal/app/notification"

// Empty is the request of RPCs that take no arguments.
type Empty struct{}

// CommandResponse is the result of a state-changing RPC.
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Listener is a member of the designated voice channel.
type Listener struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	JoinedAt    string `json:"joined_at"`
}

// GetStatusResponse describes the session.
type GetStatusResponse struct {
	Mode                string              `json:"mode"`
	Connected           bool                `json:"connected"`
	ChannelID           string              `json:"channel_id,omitempty"`
	DesignatedChannelID string              `json:"designated_channel_id"`
	StreamURL           string              `json:"stream_url,omitempty"`
	Volume              int                 `json:"volume"`
	Paused              bool                `json:"paused"`
	Resolving           bool                `json:"resolving"`
	Repeat              bool                `json:"repeat"`
	Shuffle             bool                `json:"shuffle"`
	AutoJoin            bool                `json:"auto_join"`
	QueueSize           int                 `json:"queue_size"`
	CurrentTrack        *notification.Track `json:"current_track,omitempty"`
	Listeners           []Listener          `json:"listeners"`
	UptimeSeconds       int64               `json:"uptime_seconds"`
}

// PlayRequest asks for an on-demand track or playlist.
type PlayRequest struct {
	ChannelID string `json:"channel_id,omitempty"` // Defaults to the designated channel
	Query     string `json:"query"`
}

// StreamRequest asks for a live stream.
type StreamRequest struct {
	ChannelID string `json:"channel_id,omitempty"`
	URL       string `json:"url,omitempty"` // Empty selects the configured stream
}

// SetVolumeRequest sets the volume in percent.
type SetVolumeRequest struct {
	Percent int `json:"percent"`
}

// SetRepeatRequest sets repeat mode.
type SetRepeatRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutoJoinRequest sets presence-driven join and leave.
type SetAutoJoinRequest struct {
	Enabled bool `json:"enabled"`
}

// ListQueueResponse lists the current and pending tracks.
type ListQueueResponse struct {
	Current *notification.Track   `json:"current,omitempty"`
	Tracks  []*notification.Track `json:"tracks"`
}
