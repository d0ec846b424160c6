package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/domain/track"
)

type collectStream struct {
	mu    sync.Mutex
	got   []*Notification
	err   error
	block chan struct{}
}

func (s *collectStream) Send(n *Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *collectStream) received() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Notification(nil), s.got...)
}

func TestManager_SubscribeBroadcast(t *testing.T) {
	m := NewManager()
	a, b := &collectStream{}, &collectStream{}

	idA := m.Subscribe(a)
	idB := m.Subscribe(b)
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, 2, m.SubscriberCount())

	require.NoError(t, m.Broadcast(&Notification{Type: "track_started"}))
	require.NoError(t, m.Broadcast(&Notification{Type: "stopped"}))

	for _, s := range []*collectStream{a, b} {
		got := s.received()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].SequenceNo)
		assert.Equal(t, uint64(2), got[1].SequenceNo)
	}

	m.Unsubscribe(idA)
	require.NoError(t, m.Broadcast(&Notification{Type: "paused"}))
	assert.Len(t, a.received(), 2)
	assert.Len(t, b.received(), 3)
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := &collectStream{block: make(chan struct{})}
	defer close(slow.block)
	fast := &collectStream{}
	failing := &collectStream{err: errors.New("stream closed")}

	m.Subscribe(slow)
	m.Subscribe(fast)
	m.Subscribe(failing)

	start := time.Now()
	require.NoError(t, m.Broadcast(&Notification{Type: "track_started"}))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, fast.received(), 1)
}

func TestManager_Send(t *testing.T) {
	m := NewManager()
	s := &collectStream{}
	id := m.Subscribe(s)

	require.NoError(t, m.Send(id, &Notification{Type: "x"}))
	assert.NoError(t, m.Send("unknown", &Notification{Type: "x"}))
	assert.Len(t, s.received(), 1)

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_Pump(t *testing.T) {
	m := NewManager()
	s := &collectStream{}
	m.Subscribe(s)

	events := make(chan playback.Event, 2)
	events <- playback.Event{Type: playback.EventPaused, Mode: playback.ModePlayingQueue, Message: "Paused ⏸️"}
	events <- playback.Event{Type: playback.EventStopped, Mode: playback.ModeIdle}
	close(events)

	m.Pump(context.Background(), events)

	got := s.received()
	require.Len(t, got, 2)
	assert.Equal(t, "paused", got[0].Type)
	assert.Equal(t, "playing_queue", got[0].Mode)
	assert.Equal(t, "Paused ⏸️", got[0].Message)
	assert.Equal(t, "stopped", got[1].Type)
}

func TestFromEvent(t *testing.T) {
	d := track.NewOnDemand(track.Metadata{
		Title:     "Song",
		Uploader:  "Band",
		SourceRef: "https://www.youtube.com/watch?v=x",
		Duration:  185 * time.Second,
	}, track.Requester{Name: "alice", Type: track.RequesterTypeUser})

	n := FromEvent(playback.Event{
		Type:     playback.EventTrackQueued,
		Mode:     playback.ModePlayingQueue,
		Track:    d,
		Position: 2,
		Message:  "queued",
	})
	assert.Equal(t, "track_queued", n.Type)
	assert.Equal(t, 2, n.Position)
	require.NotNil(t, n.Track)
	assert.Equal(t, "Song", n.Track.Title)
	assert.Equal(t, 185, n.Track.DurationSec)
	assert.Equal(t, "alice", n.Track.RequesterName)
	assert.Equal(t, "USER", n.Track.RequesterType)
	assert.Empty(t, n.ErrorKind)

	n = FromEvent(playback.Event{
		Type: playback.EventError,
		Err:  &playback.Error{Kind: playback.KindProbe, Op: "stream", Target: "u", Err: errors.New("timeout")},
	})
	assert.Equal(t, "probe", n.ErrorKind)
	assert.Nil(t, n.Track)
}
