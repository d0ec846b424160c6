package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19cast/internal/app/notification"
	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/member"
	"github.com/osa030/19cast/internal/domain/playlist"
	"github.com/osa030/19cast/internal/domain/track"
	"github.com/osa030/19cast/internal/infra/config"
)

type pipe struct {
	once       sync.Once
	done       chan struct{}
	onComplete func(error)
}

func (p *pipe) finish() {
	p.once.Do(func() {
		close(p.done)
		go p.onComplete(nil)
	})
}

func (p *pipe) Stop()                 { p.finish() }
func (p *pipe) Pause()                {}
func (p *pipe) Resume()               {}
func (p *pipe) SetVolume(float64)     {}
func (p *pipe) IsPaused() bool        { return false }
func (p *pipe) Done() <-chan struct{} { return p.done }
func (p *pipe) IsActive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

type voice struct {
	mu        sync.Mutex
	channelID string
	connected bool
	streams   []track.Stream
}

func (v *voice) ChannelID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channelID
}

func (v *voice) IsConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

func (v *voice) Disconnect() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = false
	return nil
}

func (v *voice) StartPipe(stream track.Stream, _ float64, onComplete func(error)) (playback.Pipe, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.streams = append(v.streams, stream)
	return &pipe{done: make(chan struct{}), onComplete: onComplete}, nil
}

func (v *voice) started() []track.Stream {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]track.Stream(nil), v.streams...)
}

type gateway struct{ voice *voice }

func (g *gateway) Connect(_ context.Context, channelID string) (playback.Session, error) {
	g.voice.mu.Lock()
	defer g.voice.mu.Unlock()
	g.voice.channelID = channelID
	g.voice.connected = true
	return g.voice, nil
}

type resolver struct{}

func (resolver) Resolve(_ context.Context, query string) (playback.Result, error) {
	return playback.Result{
		Metadata: track.Metadata{Title: query, SourceRef: query},
		Stream:   track.Stream{URL: "https://cdn.example/" + query},
	}, nil
}

func (resolver) ResolvePlaylist(context.Context, string, int) (*playlist.Playlist, error) {
	return nil, assert.AnError
}

type prober struct{}

func (prober) Probe(context.Context, string, time.Duration) error { return nil }

type roster struct{ members []member.Member }

func (r roster) CurrentMembers(context.Context, string) ([]member.Member, error) {
	return r.members, nil
}

type collector struct {
	mu    sync.Mutex
	types []string
}

func (c *collector) Send(n *notification.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, n.Type)
	return nil
}

func (c *collector) has(typ string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.types {
		if t == typ {
			return true
		}
	}
	return false
}

func testConfig(t *testing.T, autoJoin bool) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Discord:   config.DiscordConfig{Token: "t", GuildID: "g", VoiceChannelID: "vc-1"},
		Stream:    config.StreamConfig{URL: "http://radio.example:8000/stream"},
		Resolvers: []config.ResolverConfig{{Type: "ytdlp", DisplayName: "YouTube"}},
		Admin:     config.AdminConfig{Token: "a"},
		Playback:  config.PlaybackConfig{AutoJoin: &autoJoin},
	}
	require.NoError(t, defaults.Set(cfg))
	cfg.Playback.StopSettleMs = 50
	return cfg
}

func startManager(t *testing.T, autoJoin bool, members []member.Member) (*Manager, *voice) {
	t.Helper()
	v := &voice{}
	m, err := NewManager(testConfig(t, autoJoin), Deps{
		Gateway:  &gateway{voice: v},
		Resolver: resolver{},
		Prober:   prober{},
		Presence: roster{members: members},
	})
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Close)
	return m, v
}

func TestNewManager_RequiresDeps(t *testing.T) {
	_, err := NewManager(testConfig(t, true), Deps{})
	assert.Error(t, err)
}

func TestManager_StartTwice(t *testing.T) {
	m, _ := startManager(t, false, nil)
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyRunning)
}

func TestManager_PlayStartsTrack(t *testing.T) {
	m, v := startManager(t, false, nil)
	sink := &collector{}
	m.Notifications().Subscribe(sink)

	ctx := context.Background()
	require.NoError(t, m.Play(ctx, playback.PlayRequest{
		ChannelID: "vc-1",
		Query:     "song",
		Requester: track.Requester{Name: "alice", Type: track.RequesterTypeUser},
	}))

	require.Eventually(t, func() bool { return len(v.started()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "https://cdn.example/song", v.started()[0].URL)

	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, playback.ModePlayingQueue, st.Mode)
	assert.Equal(t, "vc-1", st.DesignatedChannelID)
	assert.False(t, st.AutoJoin)
	require.NotNil(t, st.Current)
	assert.Equal(t, "song", st.Current.Title)

	assert.Eventually(t, func() bool { return sink.has("track_started") }, 2*time.Second, 10*time.Millisecond)
}

func TestManager_SyncJoinsPresentListeners(t *testing.T) {
	members := []member.Member{member.New("u1", "alice", "vc-1", false)}
	m, v := startManager(t, true, members)

	require.Eventually(t, func() bool { return len(v.started()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "http://radio.example:8000/stream", v.started()[0].URL)

	require.Eventually(t, func() bool {
		st, err := m.Status(context.Background())
		return err == nil && st.Mode == playback.ModePlayingLiveStream
	}, 2*time.Second, 10*time.Millisecond)

	st, err := m.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Listeners, 1)
	assert.Equal(t, "alice", st.Listeners[0].DisplayName)
}

func TestManager_PresenceLeaveStops(t *testing.T) {
	alice := member.New("u1", "alice", "vc-1", false)
	m, v := startManager(t, true, []member.Member{alice})
	require.Eventually(t, func() bool { return len(v.started()) == 1 }, 2*time.Second, 10*time.Millisecond)

	m.MemberLeft("vc-1", alice)

	require.Eventually(t, func() bool { return !v.IsConnected() }, 2*time.Second, 10*time.Millisecond)
}

func TestManager_Toggles(t *testing.T) {
	m, _ := startManager(t, true, nil)
	ctx := context.Background()

	on, err := m.ToggleAutoJoin(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = m.ToggleRepeat(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = m.ToggleShuffle(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, m.SetAutoJoin(ctx, true))
	st, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.AutoJoin)
	assert.True(t, st.Repeat)
	assert.True(t, st.Shuffle)
}

func TestManager_SynchronousErrors(t *testing.T) {
	m, _ := startManager(t, false, nil)
	ctx := context.Background()

	assert.ErrorIs(t, m.Skip(ctx), playback.ErrNothingPlaying)
	assert.ErrorIs(t, m.SetVolume(ctx, 101), playback.ErrVolumeRange)
	assert.ErrorIs(t, m.Play(ctx, playback.PlayRequest{ChannelID: "vc-1"}), playback.ErrEmptyQuery)
}

func TestManager_ClosedRejectsCommands(t *testing.T) {
	m, _ := startManager(t, false, nil)
	m.Close()
	assert.ErrorIs(t, m.Skip(context.Background()), ErrNotRunning)
	m.Close()
}

func TestManager_RestartAfterClose(t *testing.T) {
	m, _ := startManager(t, false, nil)
	m.Close()

	select {
	case <-m.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}
	assert.ErrorIs(t, m.Start(context.Background()), ErrNotRunning)
}
