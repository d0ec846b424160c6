// Package session provides the session manager.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/eventloop"
	"github.com/osa030/19cast/internal/app/filter"
	"github.com/osa030/19cast/internal/app/notification"
	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/app/presence"
	"github.com/osa030/19cast/internal/app/status"
	"github.com/osa030/19cast/internal/domain/member"
	"github.com/osa030/19cast/internal/infra/config"
)

var (
	ErrNotRunning     = errors.New("session is not running")
	ErrAlreadyRunning = errors.New("session is already running")
)

// Deps are the external collaborators of a session.
type Deps struct {
	Gateway    playback.Gateway
	Resolver   playback.Resolver
	Prober     playback.Prober
	Presence   presence.Source
	NowPlaying status.NowPlayingSource
	StatusSink status.Sink
	Filters    *filter.Chain
}

// Status is a point-in-time view of the whole session.
type Status struct {
	playback.Snapshot
	DesignatedChannelID string
	AutoJoin            bool
	Listeners           []member.Member
	Uptime              time.Duration
}

// Manager wires the event loop, playback controller, presence watcher,
// notification fan-out and status refresher. Its methods are safe for
// concurrent use; each one runs on the event loop.
type Manager struct {
	config *config.Config

	loop         *eventloop.Loop
	playback     *playback.Controller
	watcher      *presence.Watcher
	notification *notification.Manager
	refresher    *status.Refresher

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, deps Deps) (*Manager, error) {
	if deps.Gateway == nil || deps.Resolver == nil || deps.Prober == nil || deps.Presence == nil {
		return nil, errors.New("gateway, resolver, prober and presence source are required")
	}

	m := &Manager{
		config:       cfg,
		loop:         eventloop.New(256),
		notification: notification.NewManager(),
		done:         make(chan struct{}),
	}

	m.playback = playback.NewController(playback.Config{
		DefaultStreamURL: cfg.Stream.URL,
		DefaultVolume:    float64(cfg.Playback.Volume()) / 100,
		StopSettle:       cfg.Playback.StopSettle(),
		ProbeTimeout:     cfg.Stream.ProbeTimeout(),
		ResolveTimeout:   cfg.Playback.ResolveTimeout(),
		ConnectTimeout:   cfg.Playback.ConnectTimeout(),
		PlaylistLimit:    cfg.Playback.PlaylistLimit,
		RejectMessage:    cfg.GetMessage,
	}, playback.Deps{
		Gateway:  deps.Gateway,
		Resolver: deps.Resolver,
		Prober:   deps.Prober,
		Filters:  deps.Filters,
		Post:     m.loop.Post,
	})

	m.watcher = presence.NewWatcher(cfg.Discord.VoiceChannelID, cfg.Playback.AutoJoinEnabled(), deps.Presence, m.playback)

	if deps.StatusSink != nil {
		m.refresher = status.NewRefresher(status.Config{
			Interval: cfg.Stream.StatusRefresh(),
			Backoff:  cfg.Stream.StatusBackoff(),
		}, m.snapshot, deps.NowPlaying, deps.StatusSink)
	}

	return m, nil
}

// Start runs the event loop and background workers, then syncs presence.
func (m *Manager) Start(ctx context.Context) error {
	select {
	case <-m.done:
		return ErrNotRunning
	default:
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.startedAt = time.Now()
	m.mu.Unlock()

	go m.loop.Run(runCtx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.notification.Pump(runCtx, m.playback.Events())
	}()

	if m.refresher != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.refresher.Run(runCtx)
		}()
	}

	err := m.loop.Call(ctx, func() error {
		return m.watcher.Sync(ctx)
	})
	if err != nil {
		// The bot still serves commands without the initial presence sync.
		zlog.Error().Msgf("initial presence sync failed: %v", err)
	}

	zlog.Info().Msgf("session started: voice_channel=%s auto_join=%t", m.config.Discord.VoiceChannelID, m.config.Playback.AutoJoinEnabled())
	return nil
}

// Close stops the loop, tears down playback and waits for workers.
func (m *Manager) Close() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	<-m.loop.Done()
	m.playback.Close()
	m.wg.Wait()
	m.notification.Close()
	close(m.done)
	zlog.Info().Msg("session closed")
}

// Done is closed once Close has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Notifications returns the notification manager.
func (m *Manager) Notifications() *notification.Manager {
	return m.notification
}

// DesignatedChannelID returns the voice channel watched for presence.
func (m *Manager) DesignatedChannelID() string {
	return m.config.Discord.VoiceChannelID
}

// do runs fn on the loop.
func (m *Manager) do(ctx context.Context, fn func() error) error {
	err := m.loop.Call(ctx, fn)
	if errors.Is(err, eventloop.ErrStopped) {
		return ErrNotRunning
	}
	return err
}

// Play plays or enqueues a query.
func (m *Manager) Play(ctx context.Context, req playback.PlayRequest) error {
	return m.do(ctx, func() error { return m.playback.Play(req) })
}

// Stream switches to a live stream. An empty URL selects the default stream.
func (m *Manager) Stream(ctx context.Context, req playback.StreamRequest) error {
	return m.do(ctx, func() error { return m.playback.Stream(req) })
}

// Skip skips the current track.
func (m *Manager) Skip(ctx context.Context) error {
	return m.do(ctx, m.playback.Skip)
}

// Pause pauses playback.
func (m *Manager) Pause(ctx context.Context) error {
	return m.do(ctx, m.playback.Pause)
}

// Resume resumes playback.
func (m *Manager) Resume(ctx context.Context) error {
	return m.do(ctx, m.playback.Resume)
}

// Stop stops playback, clears the queue and leaves the voice channel.
func (m *Manager) Stop(ctx context.Context) error {
	return m.do(ctx, m.playback.Stop)
}

// SetVolume sets the volume in percent.
func (m *Manager) SetVolume(ctx context.Context, percent int) error {
	return m.do(ctx, func() error { return m.playback.SetVolume(percent) })
}

// ClearQueue empties the pending queue.
func (m *Manager) ClearQueue(ctx context.Context) error {
	return m.do(ctx, func() error {
		m.playback.ClearQueue()
		return nil
	})
}

// SetRepeat sets repeat mode.
func (m *Manager) SetRepeat(ctx context.Context, on bool) error {
	return m.do(ctx, func() error {
		m.playback.SetRepeat(on)
		return nil
	})
}

// ToggleRepeat flips repeat mode and returns the new value.
func (m *Manager) ToggleRepeat(ctx context.Context) (bool, error) {
	var on bool
	err := m.do(ctx, func() error {
		on = !m.playback.Snapshot().Repeat
		m.playback.SetRepeat(on)
		return nil
	})
	return on, err
}

// ToggleShuffle flips the shuffle flag and returns the new value.
func (m *Manager) ToggleShuffle(ctx context.Context) (bool, error) {
	var on bool
	err := m.do(ctx, func() error {
		on = !m.playback.Snapshot().Shuffle
		m.playback.SetShuffle(on)
		return nil
	})
	return on, err
}

// SetAutoJoin enables or disables presence-driven join and leave.
func (m *Manager) SetAutoJoin(ctx context.Context, on bool) error {
	return m.do(ctx, func() error {
		m.watcher.SetAutoJoin(on)
		return nil
	})
}

// ToggleAutoJoin flips auto-join and returns the new value.
func (m *Manager) ToggleAutoJoin(ctx context.Context) (bool, error) {
	var on bool
	err := m.do(ctx, func() error {
		on = m.watcher.ToggleAutoJoin()
		return nil
	})
	return on, err
}

// Status returns the session status.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	var st *Status
	err := m.do(ctx, func() error {
		st = &Status{
			Snapshot:            m.playback.Snapshot(),
			DesignatedChannelID: m.watcher.ChannelID(),
			AutoJoin:            m.watcher.AutoJoin(),
			Listeners:           m.watcher.Listeners(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	st.Uptime = time.Since(m.startedAt)
	m.mu.Unlock()
	return st, nil
}

func (m *Manager) snapshot(ctx context.Context) (playback.Snapshot, error) {
	var snap playback.Snapshot
	err := m.do(ctx, func() error {
		snap = m.playback.Snapshot()
		return nil
	})
	return snap, err
}

// MemberJoined forwards a presence change onto the loop.
func (m *Manager) MemberJoined(channelID string, mb member.Member) {
	if !m.loop.Post(func() { m.watcher.MemberJoined(channelID, mb) }) {
		zlog.Debug().Msgf("presence event dropped, loop stopped: member=%s", mb.DisplayName)
	}
}

// MemberLeft forwards a presence change onto the loop.
func (m *Manager) MemberLeft(channelID string, mb member.Member) {
	if !m.loop.Post(func() { m.watcher.MemberLeft(channelID, mb) }) {
		zlog.Debug().Msgf("presence event dropped, loop stopped: member=%s", mb.DisplayName)
	}
}
