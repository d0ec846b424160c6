package connect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/19cast/internal/app/notification"
	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/app/session"
	"github.com/osa030/19cast/internal/domain/track"
)

// Session is the part of the session manager the admin service drives.
type Session interface {
	Play(ctx context.Context, req playback.PlayRequest) error
	Stream(ctx context.Context, req playback.StreamRequest) error
	Skip(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	SetVolume(ctx context.Context, percent int) error
	ClearQueue(ctx context.Context) error
	SetRepeat(ctx context.Context, on bool) error
	SetAutoJoin(ctx context.Context, on bool) error
	Status(ctx context.Context) (*session.Status, error)
	Notifications() *notification.Manager
	Done() <-chan struct{}
}

// AdminService implements the AdminService RPC.
type AdminService struct {
	session Session
}

// NewAdminService creates a new AdminService.
func NewAdminService(sess Session) *AdminService {
	return &AdminService{session: sess}
}

// Ensure AdminService implements the interface.
var _ AdminServiceHandler = (*AdminService)(nil)

var adminRequester = track.Requester{Name: "admin", Type: track.RequesterTypeAdmin}

// commandResult turns a session error into a response. Failures of the
// command itself are reported in the message; a stopped session is an RPC error.
func commandResult(err error, okMessage string) (*connect.Response[CommandResponse], error) {
	if errors.Is(err, session.ErrNotRunning) {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	if err != nil {
		msg := err.Error()
		var perr *playback.Error
		if errors.As(err, &perr) {
			msg = perr.UserMessage()
		}
		return connect.NewResponse(&CommandResponse{Success: false, Message: msg}), nil
	}
	return connect.NewResponse(&CommandResponse{Success: true, Message: okMessage}), nil
}

func (s *AdminService) status(ctx context.Context) (*session.Status, error) {
	st, err := s.session.Status(ctx)
	if errors.Is(err, session.ErrNotRunning) {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return st, nil
}

// GetStatus returns the current session status.
func (s *AdminService) GetStatus(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[GetStatusResponse], error) {
	st, err := s.status(ctx)
	if err != nil {
		return nil, err
	}

	listeners := make([]Listener, len(st.Listeners))
	for i, l := range st.Listeners {
		listeners[i] = Listener{
			ID:          l.ID,
			DisplayName: l.DisplayName,
			JoinedAt:    l.JoinedAt.Format(time.RFC3339),
		}
	}

	return connect.NewResponse(&GetStatusResponse{
		Mode:                st.Mode.String(),
		Connected:           st.Connected,
		ChannelID:           st.ChannelID,
		DesignatedChannelID: st.DesignatedChannelID,
		StreamURL:           st.StreamURL,
		Volume:              int(st.Volume*100 + 0.5),
		Paused:              st.Paused,
		Resolving:           st.Resolving,
		Repeat:              st.Repeat,
		Shuffle:             st.Shuffle,
		AutoJoin:            st.AutoJoin,
		QueueSize:           len(st.Pending),
		CurrentTrack:        notification.TrackFrom(st.Current),
		Listeners:           listeners,
		UptimeSeconds:       int64(st.Uptime / time.Second),
	}), nil
}

// Play plays or enqueues a query. Without a channel the designated one is used.
func (s *AdminService) Play(
	ctx context.Context,
	req *connect.Request[PlayRequest],
) (*connect.Response[CommandResponse], error) {
	err := s.session.Play(ctx, playback.PlayRequest{
		ChannelID: s.channel(ctx, req.Msg.ChannelID),
		Query:     req.Msg.Query,
		Requester: adminRequester,
	})
	return commandResult(err, fmt.Sprintf("Request accepted: %s", req.Msg.Query))
}

// Stream switches to a live stream.
func (s *AdminService) Stream(
	ctx context.Context,
	req *connect.Request[StreamRequest],
) (*connect.Response[CommandResponse], error) {
	err := s.session.Stream(ctx, playback.StreamRequest{
		ChannelID: s.channel(ctx, req.Msg.ChannelID),
		URL:       req.Msg.URL,
		Requester: adminRequester,
	})
	return commandResult(err, "Stream requested")
}

// channel picks the requested channel, the current one, or the designated one.
func (s *AdminService) channel(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	st, err := s.session.Status(ctx)
	if err != nil {
		return ""
	}
	if st.Connected {
		return st.ChannelID
	}
	return st.DesignatedChannelID
}

// Skip skips the current track.
func (s *AdminService) Skip(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return commandResult(s.session.Skip(ctx), "Track skipped")
}

// Stop stops playback and disconnects.
func (s *AdminService) Stop(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return commandResult(s.session.Stop(ctx), "Stopped and disconnected")
}

// Pause pauses playback.
func (s *AdminService) Pause(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return commandResult(s.session.Pause(ctx), "Playback paused")
}

// Resume resumes playback.
func (s *AdminService) Resume(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return commandResult(s.session.Resume(ctx), "Playback resumed")
}

// SetVolume sets the volume.
func (s *AdminService) SetVolume(
	ctx context.Context,
	req *connect.Request[SetVolumeRequest],
) (*connect.Response[CommandResponse], error) {
	err := s.session.SetVolume(ctx, req.Msg.Percent)
	return commandResult(err, fmt.Sprintf("Volume set to %d%%", req.Msg.Percent))
}

// ListQueue lists the current and pending tracks.
func (s *AdminService) ListQueue(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[ListQueueResponse], error) {
	st, err := s.status(ctx)
	if err != nil {
		return nil, err
	}
	tracks := make([]*notification.Track, len(st.Pending))
	for i, d := range st.Pending {
		tracks[i] = notification.TrackFrom(d)
	}
	return connect.NewResponse(&ListQueueResponse{
		Current: notification.TrackFrom(st.Current),
		Tracks:  tracks,
	}), nil
}

// ClearQueue empties the pending queue.
func (s *AdminService) ClearQueue(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CommandResponse], error) {
	return commandResult(s.session.ClearQueue(ctx), "Queue cleared")
}

// SetRepeat sets repeat mode.
func (s *AdminService) SetRepeat(
	ctx context.Context,
	req *connect.Request[SetRepeatRequest],
) (*connect.Response[CommandResponse], error) {
	err := s.session.SetRepeat(ctx, req.Msg.Enabled)
	return commandResult(err, fmt.Sprintf("Repeat %s", onOff(req.Msg.Enabled)))
}

// SetAutoJoin sets presence-driven join and leave.
func (s *AdminService) SetAutoJoin(
	ctx context.Context,
	req *connect.Request[SetAutoJoinRequest],
) (*connect.Response[CommandResponse], error) {
	err := s.session.SetAutoJoin(ctx, req.Msg.Enabled)
	return commandResult(err, fmt.Sprintf("Auto-join %s", onOff(req.Msg.Enabled)))
}

// WatchNotifications streams the current state, then every notification
// until the client goes away or the session closes.
func (s *AdminService) WatchNotifications(
	ctx context.Context,
	req *connect.Request[Empty],
	stream *connect.ServerStream[notification.Notification],
) error {
	notifManager := s.session.Notifications()

	st, err := s.status(ctx)
	if err != nil {
		return err
	}
	initial := &notification.Notification{
		SequenceNo: notifManager.NextSequenceNo(),
		Type:       "initial_state",
		Mode:       st.Mode.String(),
		Track:      notification.TrackFrom(st.Current),
		Timestamp:  time.Now(),
	}
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := notifManager.Subscribe(adapter)
	defer notifManager.Unsubscribe(subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[notification.Notification]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(n)
}

func onOff(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
