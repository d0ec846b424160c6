// Package presence follows listener presence in the designated voice channel
// and connects or disconnects the playback session accordingly.
package presence

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/member"
	"github.com/osa030/19cast/internal/domain/track"
	"github.com/osa030/19cast/internal/infra/metrics"
)

// Source reports who is currently in a voice channel.
type Source interface {
	CurrentMembers(ctx context.Context, channelID string) ([]member.Member, error)
}

// Controller is the part of the playback controller the watcher drives.
type Controller interface {
	IsConnectedTo(channelID string) bool
	Stream(req playback.StreamRequest) error
	Stop() error
}

// Watcher turns join and leave events into playback actions.
// All methods must be called from the event loop.
type Watcher struct {
	channelID  string
	source     Source
	controller Controller
	roster     *Roster
	autoJoin   bool
}

// NewWatcher creates a watcher for channelID.
func NewWatcher(channelID string, autoJoin bool, source Source, controller Controller) *Watcher {
	return &Watcher{
		channelID:  channelID,
		source:     source,
		controller: controller,
		roster:     NewRoster(),
		autoJoin:   autoJoin,
	}
}

// Sync seeds the roster from the presence source and, if listeners are
// already present, runs the join policy once.
func (w *Watcher) Sync(ctx context.Context) error {
	members, err := w.source.CurrentMembers(ctx, w.channelID)
	if err != nil {
		return errors.Wrap(err, "failed to list voice channel members")
	}

	w.roster.Replace(w.channelID, members)
	count := w.roster.Count(w.channelID)
	metrics.Listeners.Set(float64(count))
	zlog.Info().Msgf("presence synced: channel=%s listeners=%d", w.channelID, count)

	if count > 0 {
		first := w.roster.Members(w.channelID)[0]
		w.join(first)
	}
	return nil
}

// MemberJoined handles m arriving in channelID.
func (w *Watcher) MemberJoined(channelID string, m member.Member) {
	if channelID != w.channelID {
		return
	}
	if !w.roster.Join(channelID, m) {
		return
	}
	metrics.Listeners.Set(float64(w.roster.Count(channelID)))
	zlog.Info().Msgf("listener joined: channel=%s member=%s listeners=%d",
		channelID, m.DisplayName, w.roster.Count(channelID))

	w.join(m)
}

// MemberLeft handles m leaving channelID.
func (w *Watcher) MemberLeft(channelID string, m member.Member) {
	if channelID != w.channelID {
		return
	}
	if !w.roster.Leave(channelID, m.ID) {
		return
	}
	count := w.roster.Count(channelID)
	metrics.Listeners.Set(float64(count))
	zlog.Info().Msgf("listener left: channel=%s member=%s listeners=%d", channelID, m.DisplayName, count)

	if count > 0 {
		return
	}
	if !w.autoJoin {
		zlog.Debug().Msg("auto-join disabled, staying connected")
		return
	}

	zlog.Info().Msgf("channel empty, disconnecting: channel=%s", channelID)
	metrics.PresenceActionsTotal.WithLabelValues("leave").Inc()
	if err := w.controller.Stop(); err != nil && !errors.Is(err, playback.ErrNotConnected) {
		zlog.Error().Msgf("failed to stop on empty channel: %v", err)
	}
}

func (w *Watcher) join(m member.Member) {
	if !w.autoJoin {
		zlog.Debug().Msg("auto-join disabled, not connecting")
		return
	}
	if w.controller.IsConnectedTo(w.channelID) {
		return
	}

	zlog.Info().Msgf("auto-joining for listener: channel=%s member=%s", w.channelID, m.DisplayName)
	metrics.PresenceActionsTotal.WithLabelValues("join").Inc()
	err := w.controller.Stream(playback.StreamRequest{
		ChannelID: w.channelID,
		Requester: track.Requester{
			ID:   m.ID,
			Name: m.DisplayName,
			Type: track.RequesterTypePresence,
		},
	})
	if err != nil {
		zlog.Error().Msgf("auto-join failed: %v", err)
	}
}

// AutoJoin reports whether automatic join and leave is enabled.
func (w *Watcher) AutoJoin() bool {
	return w.autoJoin
}

// SetAutoJoin enables or disables automatic join and leave.
func (w *Watcher) SetAutoJoin(on bool) {
	w.autoJoin = on
	zlog.Info().Msgf("auto-join set: enabled=%t", on)
}

// ToggleAutoJoin flips auto-join and returns the new value.
func (w *Watcher) ToggleAutoJoin() bool {
	w.SetAutoJoin(!w.autoJoin)
	return w.autoJoin
}

// Listeners returns the listeners currently in the designated channel.
func (w *Watcher) Listeners() []member.Member {
	return w.roster.Members(w.channelID)
}

// ChannelID returns the designated channel.
func (w *Watcher) ChannelID() string {
	return w.channelID
}
