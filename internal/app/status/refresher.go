// Package status keeps the bot's activity label in line with what is playing.
package status

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/playback"
)

// IdleLabel is shown when nothing is playing.
const IdleLabel = "Ready for music!"

// maxLabel is the longest activity name Discord displays.
const maxLabel = 128

// Sink shows the label to users.
type Sink interface {
	SetStatus(label string) error
}

// NowPlayingSource describes what a live stream is playing.
type NowPlayingSource interface {
	NowPlaying(ctx context.Context, streamURL string) (string, error)
}

// StateFunc returns a snapshot of the playback state.
type StateFunc func(ctx context.Context) (playback.Snapshot, error)

// Config represents refresher timing.
type Config struct {
	Interval time.Duration // Normal refresh period
	Backoff  time.Duration // Period after a failure
}

// Refresher periodically recomputes the label and pushes it when it changes.
type Refresher struct {
	config Config
	state  StateFunc
	live   NowPlayingSource
	sink   Sink
	last   string
}

// NewRefresher creates a refresher.
func NewRefresher(config Config, state StateFunc, live NowPlayingSource, sink Sink) *Refresher {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.Backoff <= 0 {
		config.Backoff = 60 * time.Second
	}
	return &Refresher{config: config, state: state, live: live, sink: sink}
}

// Run refreshes until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	zlog.Debug().Msgf("status refresher started: interval=%s backoff=%s", r.config.Interval, r.config.Backoff)
	for {
		wait := r.config.Interval
		if err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			zlog.Error().Msgf("error updating status: %v", err)
			wait = r.config.Backoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			zlog.Debug().Msg("status refresher stopped")
			return
		case <-timer.C:
		}
	}
}

// Refresh computes the label once and pushes it if it changed.
func (r *Refresher) Refresh(ctx context.Context) error {
	snap, err := r.state(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read playback state")
	}

	var nowPlaying string
	if snap.Mode == playback.ModePlayingLiveStream && r.live != nil {
		np, err := r.live.NowPlaying(ctx, snap.StreamURL)
		if err != nil {
			return errors.Wrap(err, "failed to fetch now playing")
		}
		nowPlaying = np
	}

	label := Label(snap, nowPlaying)
	if label == r.last {
		return nil
	}
	if err := r.sink.SetStatus(label); err != nil {
		return err
	}
	zlog.Debug().Msgf("status updated: label=%s", label)
	r.last = label
	return nil
}

// Label returns the activity label for snap. nowPlaying is used for live streams.
func Label(snap playback.Snapshot, nowPlaying string) string {
	var label string
	switch {
	case snap.Mode == playback.ModePlayingLiveStream:
		if nowPlaying == "" {
			nowPlaying = "Unknown"
		}
		label = "🎵 " + nowPlaying
	case snap.Current != nil:
		label = "🎵 " + snap.Current.DisplayTitle()
	default:
		label = IdleLabel
	}

	if r := []rune(label); len(r) > maxLabel {
		label = string(r[:maxLabel-1]) + "…"
	}
	return label
}
