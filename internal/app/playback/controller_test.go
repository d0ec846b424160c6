package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19cast/internal/app/eventloop"
	"github.com/osa030/19cast/internal/app/filter"
	"github.com/osa030/19cast/internal/domain/playlist"
	"github.com/osa030/19cast/internal/domain/track"
)

const (
	testChannel   = "vc-1"
	testStreamURL = "http://radio.example:8000/stream"
)

// fakePipe closes Done and reports completion when stopped or finished.
type fakePipe struct {
	mu         sync.Mutex
	stream     track.Stream
	volume     float64
	paused     bool
	stopped    bool
	done       chan struct{}
	once       sync.Once
	onComplete func(error)
}

func (p *fakePipe) finish(err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		close(p.done)
		go p.onComplete(err)
	})
}

func (p *fakePipe) Stop() { p.finish(nil) }

func (p *fakePipe) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

func (p *fakePipe) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

func (p *fakePipe) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *fakePipe) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *fakePipe) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.stopped
}

func (p *fakePipe) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *fakePipe) Done() <-chan struct{} { return p.done }

type fakeSession struct {
	mu        sync.Mutex
	channelID string
	connected bool
	pipes     []*fakePipe
	startErr  error
}

func (s *fakeSession) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

func (s *fakeSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSession) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *fakeSession) StartPipe(stream track.Stream, volume float64, onComplete func(error)) (Pipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, s.startErr
	}
	for _, p := range s.pipes {
		if p.IsActive() {
			return nil, errors.New("transport busy")
		}
	}
	p := &fakePipe{stream: stream, volume: volume, done: make(chan struct{}), onComplete: onComplete}
	s.pipes = append(s.pipes, p)
	return p, nil
}

func (s *fakeSession) lastPipe() *fakePipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pipes) == 0 {
		return nil
	}
	return s.pipes[len(s.pipes)-1]
}

func (s *fakeSession) pipeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pipes)
}

func (s *fakeSession) activePipes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pipes {
		if p.IsActive() {
			n++
		}
	}
	return n
}

type fakeGateway struct {
	mu       sync.Mutex
	session  *fakeSession
	connects int
	err      error
}

func (g *fakeGateway) Connect(ctx context.Context, channelID string) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connects++
	if g.err != nil {
		return nil, g.err
	}
	if g.session == nil || !g.session.IsConnected() {
		g.session = &fakeSession{channelID: channelID, connected: true}
	}
	g.session.mu.Lock()
	g.session.channelID = channelID
	g.session.mu.Unlock()
	return g.session, nil
}

func (g *fakeGateway) current() *fakeSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

func (g *fakeGateway) connectCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connects
}

type fakeResolver struct {
	mu        sync.Mutex
	results   map[string]Result
	errs      map[string]error
	playlists map[string]*playlist.Playlist
	gates     map[string]chan struct{}
	calls     map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		results:   make(map[string]Result),
		errs:      make(map[string]error),
		playlists: make(map[string]*playlist.Playlist),
		gates:     make(map[string]chan struct{}),
		calls:     make(map[string]int),
	}
}

func (r *fakeResolver) add(query, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[query] = Result{
		Metadata: track.Metadata{Title: title, Uploader: "Uploader", SourceRef: query, Duration: 3 * time.Minute},
		Stream:   track.Stream{URL: "https://cdn.example/" + query},
	}
}

func (r *fakeResolver) Resolve(ctx context.Context, query string) (Result, error) {
	r.mu.Lock()
	r.calls[query]++
	gate := r.gates[query]
	res, ok := r.results[query]
	err := r.errs[query]
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, errors.Newf("no results for %s", query)
	}
	return res, nil
}

func (r *fakeResolver) ResolvePlaylist(ctx context.Context, query string, max int) (*playlist.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pl, ok := r.playlists[query]
	if !ok {
		return nil, errors.Newf("no playlist %s", query)
	}
	cp := *pl
	return &cp, nil
}

func (r *fakeResolver) callCount(query string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[query]
}

type fakeProber struct {
	mu   sync.Mutex
	errs map[string]error
}

func (p *fakeProber) Probe(ctx context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs[url]
}

type harness struct {
	t        *testing.T
	loop     *eventloop.Loop
	ctrl     *Controller
	gateway  *fakeGateway
	resolver *fakeResolver
	prober   *fakeProber
}

func newHarness(t *testing.T, chain *filter.Chain) *harness {
	t.Helper()
	loop := eventloop.New(64)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)

	h := &harness{
		t:        t,
		loop:     loop,
		gateway:  &fakeGateway{},
		resolver: newFakeResolver(),
		prober:   &fakeProber{errs: make(map[string]error)},
	}
	h.ctrl = NewController(Config{
		DefaultStreamURL: testStreamURL,
		DefaultVolume:    0.5,
		StopSettle:       200 * time.Millisecond,
	}, Deps{
		Gateway:  h.gateway,
		Resolver: h.resolver,
		Prober:   h.prober,
		Filters:  chain,
		Post:     loop.Post,
	})

	t.Cleanup(func() {
		cancel()
		<-loop.Done()
		h.ctrl.Close()
	})
	return h
}

// do runs fn on the loop.
func (h *harness) do(fn func(c *Controller) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return h.loop.Call(ctx, func() error { return fn(h.ctrl) })
}

func (h *harness) play(query string) {
	h.t.Helper()
	require.NoError(h.t, h.do(func(c *Controller) error {
		return c.Play(PlayRequest{ChannelID: testChannel, Query: query, Requester: track.Requester{Name: "alice", Type: track.RequesterTypeUser}})
	}))
}

func (h *harness) stream(url string) {
	h.t.Helper()
	require.NoError(h.t, h.do(func(c *Controller) error {
		return c.Stream(StreamRequest{ChannelID: testChannel, URL: url})
	}))
}

func (h *harness) snapshot() Snapshot {
	h.t.Helper()
	var s Snapshot
	require.NoError(h.t, h.do(func(c *Controller) error {
		s = c.Snapshot()
		return nil
	}))
	return s
}

// waitEvent returns the next event of type typ, discarding others.
func (h *harness) waitEvent(typ EventType) Event {
	h.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-h.ctrl.Events():
			if e.Type == typ {
				return e
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for event %s", typ)
			return Event{}
		}
	}
}

// waitEvents waits for all of types, in any order.
func (h *harness) waitEvents(types ...EventType) {
	h.t.Helper()
	want := make(map[EventType]bool, len(types))
	for _, typ := range types {
		want[typ] = true
	}
	timeout := time.After(2 * time.Second)
	for len(want) > 0 {
		select {
		case e := <-h.ctrl.Events():
			delete(want, e.Type)
		case <-timeout:
			h.t.Fatalf("timed out waiting for events %v", want)
			return
		}
	}
}

func titles(ds []*track.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Title)
	}
	return out
}

func TestController_PlayStartsThenQueues(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("first", "First Song")
	h.resolver.add("second", "Second Song")

	h.play("first")
	started := h.waitEvent(EventTrackStarted)
	assert.Equal(t, "First Song", started.Track.Title)
	assert.Equal(t, "🎵 Now playing: **First Song**", started.Message)
	assert.Equal(t, ModePlayingQueue, started.Mode)

	h.play("second")
	queued := h.waitEvent(EventTrackQueued)
	assert.Equal(t, 1, queued.Position)
	assert.Equal(t, "✅ Added to queue (position 1): **Second Song**", queued.Message)

	snap := h.snapshot()
	assert.True(t, snap.Connected)
	assert.Equal(t, testChannel, snap.ChannelID)
	assert.Equal(t, "First Song", snap.Current.Title)
	assert.Equal(t, []string{"Second Song"}, titles(snap.Pending))
	assert.Equal(t, 1, h.gateway.connectCount())
}

func TestController_EmptyQueryAndNoChannel(t *testing.T) {
	h := newHarness(t, nil)

	err := h.do(func(c *Controller) error { return c.Play(PlayRequest{ChannelID: testChannel, Query: "   "}) })
	assert.ErrorIs(t, err, ErrEmptyQuery)

	err = h.do(func(c *Controller) error { return c.Play(PlayRequest{Query: "song"}) })
	assert.ErrorIs(t, err, ErrNoChannel)
}

// Scenario A: FIFO advance through completion and skip.
func TestController_AdvanceOnCompletionAndSkip(t *testing.T) {
	h := newHarness(t, nil)
	const list = "https://www.youtube.com/playlist?list=PL123"
	h.resolver.playlists[list] = &playlist.Playlist{
		Title: "Mix",
		Entries: []track.Metadata{
			{Title: "T1", SourceRef: "ref1"},
			{Title: "T2", SourceRef: "ref2"},
			{Title: "T3", SourceRef: "ref3"},
		},
	}
	h.resolver.add("ref1", "T1")
	h.resolver.add("ref2", "T2")
	h.resolver.add("ref3", "T3")

	h.play(list)
	queued := h.waitEvent(EventPlaylistQueued)
	assert.Equal(t, "📋 Adding playlist: **Mix** (3 tracks)", queued.Message)

	assert.Equal(t, "T1", h.waitEvent(EventTrackStarted).Track.Title)
	snap := h.snapshot()
	assert.Equal(t, []string{"T2", "T3"}, titles(snap.Pending))

	// Natural completion advances to T2.
	h.gateway.current().lastPipe().finish(nil)
	assert.Equal(t, "T2", h.waitEvent(EventTrackStarted).Track.Title)

	// Skip triggers the same transition to T3.
	require.NoError(t, h.do(func(c *Controller) error { return c.Skip() }))
	assert.Equal(t, "T3", h.waitEvent(EventTrackStarted).Track.Title)

	h.gateway.current().lastPipe().finish(nil)
	h.waitEvent(EventQueueFinished)

	snap = h.snapshot()
	assert.Equal(t, ModeIdle, snap.Mode)
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Pending)
	assert.Equal(t, 1, h.resolver.callCount("ref1"))
}

func TestController_RepeatReplaysWithoutResolvingAgain(t *testing.T) {
	h := newHarness(t, nil)
	const list = "https://www.youtube.com/watch?v=a&list=PL9"
	h.resolver.playlists[list] = &playlist.Playlist{Entries: []track.Metadata{{Title: "Loop", SourceRef: "loop"}}}
	h.resolver.add("loop", "Loop")

	require.NoError(t, h.do(func(c *Controller) error {
		c.SetRepeat(true)
		return nil
	}))
	h.play(list)
	h.waitEvent(EventTrackStarted)

	for i := 0; i < 3; i++ {
		h.gateway.current().lastPipe().finish(nil)
		assert.Equal(t, "Loop", h.waitEvent(EventTrackStarted).Track.Title)
	}
	assert.Equal(t, 1, h.resolver.callCount("loop"))
}

// Scenario B: starting a stream clears the queue.
func TestController_StreamClearsQueue(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("t1", "T1")
	h.resolver.add("t2", "T2")

	h.play("t1")
	h.waitEvent(EventTrackStarted)
	h.play("t2")
	h.waitEvent(EventTrackQueued)
	queuePipe := h.gateway.current().lastPipe()

	h.stream("")
	connecting := h.waitEvent(EventStreamConnecting)
	assert.Equal(t, "🔄 Connecting to stream: **"+testStreamURL+"**", connecting.Message)
	started := h.waitEvent(EventStreamStarted)
	assert.Equal(t, "✅ Now streaming from: **"+testStreamURL+"**", started.Message)

	assert.False(t, queuePipe.IsActive())
	assert.Equal(t, 1, h.gateway.current().activePipes())

	snap := h.snapshot()
	assert.Equal(t, ModePlayingLiveStream, snap.Mode)
	assert.Equal(t, testStreamURL, snap.StreamURL)
	assert.Empty(t, snap.Pending)

	var next *track.Descriptor
	var ok bool
	require.NoError(t, h.do(func(c *Controller) error {
		next, ok = c.store.Advance()
		return nil
	}))
	assert.False(t, ok)
	assert.Nil(t, next)
}

func TestController_PlayLeavesLiveStream(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("song", "Song")

	h.stream("")
	h.waitEvent(EventStreamStarted)
	livePipe := h.gateway.current().lastPipe()

	h.play("song")
	changed := h.waitEvent(EventModeChanged)
	assert.Equal(t, "🔄 Switched from stream to music queue", changed.Message)
	assert.False(t, livePipe.IsActive())

	h.waitEvent(EventTrackStarted)
	snap := h.snapshot()
	assert.Equal(t, ModePlayingQueue, snap.Mode)
	assert.Empty(t, snap.StreamURL)
}

// Scenario D: a failed resolution advances automatically.
func TestController_ResolutionFailureAdvances(t *testing.T) {
	h := newHarness(t, nil)
	const list = "my playlist"
	h.resolver.playlists[list] = &playlist.Playlist{
		Title: "Broken",
		Entries: []track.Metadata{
			{Title: "T1", SourceRef: "ref1"},
			{Title: "T2", SourceRef: "ref2"},
		},
	}
	h.resolver.errs["ref1"] = errors.New("video unavailable")
	h.resolver.add("ref2", "T2")

	h.play(list)
	failed := h.waitEvent(EventError)
	require.NotNil(t, failed.Err)
	assert.Equal(t, KindResolution, failed.Err.Kind)
	assert.Equal(t, "T1", failed.Err.Target)
	assert.Contains(t, failed.Message, "T1")

	assert.Equal(t, "T2", h.waitEvent(EventTrackStarted).Track.Title)
}

func TestController_ResolutionFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("good", "Good")

	h.play("good")
	h.waitEvent(EventTrackStarted)

	h.play("missing")
	failed := h.waitEvent(EventError)
	assert.Equal(t, KindResolution, failed.Err.Kind)
	assert.Equal(t, "missing", failed.Err.Target)

	snap := h.snapshot()
	assert.Equal(t, ModePlayingQueue, snap.Mode)
	assert.Equal(t, "Good", snap.Current.Title)
	assert.Empty(t, snap.Pending)
}

// Scenario E: volume applies in place and to later tracks.
func TestController_VolumeCarriesOver(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("a", "A")
	h.resolver.add("b", "B")

	h.play("a")
	h.waitEvent(EventTrackStarted)
	first := h.gateway.current().lastPipe()
	assert.InDelta(t, 0.5, first.Volume(), 0.001)

	require.NoError(t, h.do(func(c *Controller) error { return c.SetVolume(40) }))
	assert.Equal(t, "Volume set to 40%", h.waitEvent(EventVolumeChanged).Message)
	assert.InDelta(t, 0.4, first.Volume(), 0.001)
	assert.True(t, first.IsActive())

	h.play("b")
	h.waitEvent(EventTrackQueued)
	first.finish(nil)
	h.waitEvent(EventTrackStarted)
	assert.InDelta(t, 0.4, h.gateway.current().lastPipe().Volume(), 0.001)
}

func TestController_DefaultVolume(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{name: "muted", in: 0, want: 0},
		{name: "quarter", in: 0.25, want: 25},
		{name: "too loud", in: 1.5, want: 100},
		{name: "negative", in: -0.2, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(Config{DefaultVolume: tt.in}, Deps{})
			defer c.Close()
			assert.Equal(t, tt.want, c.Volume())
		})
	}
}

func TestController_SetVolumeRange(t *testing.T) {
	h := newHarness(t, nil)
	tests := []struct {
		name    string
		percent int
		wantErr error
	}{
		{name: "lower bound", percent: 0},
		{name: "upper bound", percent: 100},
		{name: "negative", percent: -1, wantErr: ErrVolumeRange},
		{name: "too loud", percent: 101, wantErr: ErrVolumeRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.do(func(c *Controller) error { return c.SetVolume(tt.percent) })
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestController_SkipLiveStreamIsRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.stream("")
	h.waitEvent(EventStreamStarted)

	err := h.do(func(c *Controller) error { return c.Skip() })
	assert.ErrorIs(t, err, ErrSkipLive)
	assert.True(t, h.gateway.current().lastPipe().IsActive())
}

func TestController_SkipNothingPlaying(t *testing.T) {
	h := newHarness(t, nil)
	err := h.do(func(c *Controller) error { return c.Skip() })
	assert.ErrorIs(t, err, ErrNothingPlaying)
}

func TestController_ProbeFailureKeepsState(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("song", "Song")
	h.prober.errs["http://down.example/stream"] = errors.New("status 503")

	h.play("song")
	h.waitEvent(EventTrackStarted)
	pipe := h.gateway.current().lastPipe()

	h.stream("http://down.example/stream")
	failed := h.waitEvent(EventError)
	assert.Equal(t, KindProbe, failed.Err.Kind)
	assert.Equal(t, "http://down.example/stream", failed.Err.Target)

	assert.True(t, pipe.IsActive())
	snap := h.snapshot()
	assert.Equal(t, ModePlayingQueue, snap.Mode)
	assert.Equal(t, "Song", snap.Current.Title)
}

func TestController_FailedStreamKeepsPendingPlay(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("slow", "Slow")
	gate := make(chan struct{})
	h.resolver.gates["slow"] = gate
	h.prober.errs["http://down.example/stream"] = errors.New("status 503")

	h.play("slow")
	h.stream("http://down.example/stream")
	failed := h.waitEvent(EventError)
	assert.Equal(t, KindProbe, failed.Err.Kind)

	close(gate)
	started := h.waitEvent(EventTrackStarted)
	assert.Equal(t, "Slow", started.Track.Title)

	snap := h.snapshot()
	assert.Equal(t, ModePlayingQueue, snap.Mode)
	require.NotNil(t, snap.Current)
	assert.Equal(t, "Slow", snap.Current.Title)
	assert.Equal(t, 1, h.gateway.current().activePipes())
}

func TestController_PlayResultsKeepRequestOrder(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("first", "First")
	h.resolver.add("second", "Second")
	h.resolver.add("third", "Third")
	gate := make(chan struct{})
	h.resolver.gates["first"] = gate

	h.play("first")
	h.play("second")
	h.play("third")
	require.Eventually(t, func() bool {
		return h.resolver.callCount("second") == 1 && h.resolver.callCount("third") == 1
	}, time.Second, 5*time.Millisecond)

	snap := h.snapshot()
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Pending)

	close(gate)
	started := h.waitEvent(EventTrackStarted)
	assert.Equal(t, "First", started.Track.Title)
	queued := h.waitEvent(EventTrackQueued)
	assert.Equal(t, "Second", queued.Track.Title)
	assert.Equal(t, 1, queued.Position)
	queued = h.waitEvent(EventTrackQueued)
	assert.Equal(t, "Third", queued.Track.Title)
	assert.Equal(t, 2, queued.Position)

	snap = h.snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, "First", snap.Current.Title)
	assert.Equal(t, []string{"Second", "Third"}, titles(snap.Pending))
}

func TestController_LaterStreamSupersedesPlay(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("slow", "Slow")
	gate := make(chan struct{})
	h.resolver.gates["slow"] = gate

	h.play("slow")
	h.stream("")
	h.waitEvent(EventStreamStarted)

	close(gate)
	superseded := h.waitEvent(EventSuperseded)
	assert.Contains(t, superseded.Message, "slow")

	snap := h.snapshot()
	assert.Equal(t, ModePlayingLiveStream, snap.Mode)
	assert.Empty(t, snap.Pending)
	assert.Equal(t, 1, h.gateway.current().activePipes())
}

func TestController_LaterPlaySupersedesStream(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("song", "Song")
	h.resolver.add("other", "Other")

	h.play("song")
	h.waitEvent(EventTrackStarted)

	// Issue both before the loop can apply the stream result.
	require.NoError(t, h.do(func(c *Controller) error {
		if err := c.Stream(StreamRequest{ChannelID: testChannel}); err != nil {
			return err
		}
		return c.Play(PlayRequest{ChannelID: testChannel, Query: "other"})
	}))

	h.waitEvents(EventSuperseded, EventTrackQueued)
	snap := h.snapshot()
	assert.Equal(t, ModePlayingQueue, snap.Mode)
	assert.Equal(t, 1, h.gateway.current().activePipes())
}

func TestController_LiveStreamTerminationHoldsMode(t *testing.T) {
	h := newHarness(t, nil)
	h.stream("")
	h.waitEvent(EventStreamStarted)

	h.gateway.current().lastPipe().finish(errors.New("ffmpeg exited with status 1"))
	failed := h.waitEvent(EventError)
	assert.Equal(t, KindUnexpectedTermination, failed.Err.Kind)
	h.waitEvent(EventStreamEnded)

	snap := h.snapshot()
	assert.Equal(t, ModePlayingLiveStream, snap.Mode)
	assert.Equal(t, 1, h.gateway.current().pipeCount())
}

func TestController_PipeErrorInQueueActsAsCompletion(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("a", "A")
	h.resolver.add("b", "B")

	h.play("a")
	h.waitEvent(EventTrackStarted)
	h.play("b")
	h.waitEvent(EventTrackQueued)

	h.gateway.current().lastPipe().finish(errors.New("broken pipe"))
	assert.Equal(t, "B", h.waitEvent(EventTrackStarted).Track.Title)
}

func TestController_StartPipeFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("a", "A")
	h.gateway.session = &fakeSession{channelID: testChannel, connected: true, startErr: errors.New("no transport")}

	h.play("a")
	failed := h.waitEvent(EventError)
	assert.Equal(t, KindPipe, failed.Err.Kind)

	snap := h.snapshot()
	assert.Equal(t, ModeIdle, snap.Mode)
	assert.Nil(t, snap.Current)
}

func TestController_ConnectFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.gateway.err = errors.New("missing permissions")

	h.play("a")
	failed := h.waitEvent(EventError)
	assert.Equal(t, KindConnect, failed.Err.Kind)
	assert.Equal(t, testChannel, failed.Err.Target)
	assert.Equal(t, ModeIdle, h.snapshot().Mode)
}

// Scenario C (controller half): stop disconnects and a later play reconnects.
func TestController_StopThenPlayReconnects(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("a", "A")
	h.resolver.add("b", "B")

	h.stream("")
	h.waitEvent(EventStreamStarted)
	first := h.gateway.current()

	require.NoError(t, h.do(func(c *Controller) error { return c.Stop() }))
	assert.Equal(t, "Stopped and disconnected! 👋", h.waitEvent(EventStopped).Message)
	assert.False(t, first.IsConnected())

	snap := h.snapshot()
	assert.Equal(t, ModeIdle, snap.Mode)
	assert.False(t, snap.Connected)
	assert.Nil(t, snap.Current)

	h.play("a")
	h.waitEvent(EventTrackStarted)
	assert.Equal(t, 2, h.gateway.connectCount())
	assert.NotSame(t, first, h.gateway.current())
}

func TestController_StopWhenNotConnected(t *testing.T) {
	h := newHarness(t, nil)
	err := h.do(func(c *Controller) error { return c.Stop() })
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestController_StopSupersedesInFlightPlay(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("slow", "Slow")
	gate := make(chan struct{})
	h.resolver.gates["slow"] = gate

	h.play("slow")
	_ = h.do(func(c *Controller) error { return c.Stop() })
	close(gate)

	h.waitEvent(EventSuperseded)
	snap := h.snapshot()
	assert.Equal(t, ModeIdle, snap.Mode)
	assert.False(t, snap.Connected)
	assert.Nil(t, snap.Current)
}

func TestController_PauseResume(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("a", "A")

	assert.ErrorIs(t, h.do(func(c *Controller) error { return c.Pause() }), ErrNothingPlaying)
	assert.ErrorIs(t, h.do(func(c *Controller) error { return c.Resume() }), ErrNothingPaused)

	h.play("a")
	h.waitEvent(EventTrackStarted)

	require.NoError(t, h.do(func(c *Controller) error { return c.Pause() }))
	assert.Equal(t, "Paused ⏸️", h.waitEvent(EventPaused).Message)
	assert.True(t, h.snapshot().Paused)
	assert.ErrorIs(t, h.do(func(c *Controller) error { return c.Pause() }), ErrNothingPlaying)

	require.NoError(t, h.do(func(c *Controller) error { return c.Resume() }))
	assert.Equal(t, "Resumed ▶️", h.waitEvent(EventResumed).Message)
	assert.False(t, h.snapshot().Paused)
}

func TestController_ClearQueueLetsCurrentFinish(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("a", "A")
	h.resolver.add("b", "B")

	h.play("a")
	h.waitEvent(EventTrackStarted)
	h.play("b")
	h.waitEvent(EventTrackQueued)

	require.NoError(t, h.do(func(c *Controller) error {
		c.ClearQueue()
		return nil
	}))
	h.waitEvent(EventCleared)

	pipe := h.gateway.current().lastPipe()
	assert.True(t, pipe.IsActive())
	snap := h.snapshot()
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Pending)

	pipe.finish(nil)
	h.waitEvent(EventQueueFinished)
	assert.Equal(t, ModeIdle, h.snapshot().Mode)
}

func TestController_FilterRejection(t *testing.T) {
	chain := filter.NewChain()
	chain.Add(filter.NewDuplicateTrackFilter())
	h := newHarness(t, chain)
	h.resolver.add("a", "A")

	h.play("a")
	h.waitEvent(EventTrackStarted)

	h.play("a")
	rejected := h.waitEvent(EventError)
	assert.Equal(t, KindRejected, rejected.Err.Kind)
	assert.Equal(t, "🚫 **A**: duplicate_track", rejected.Message)
	assert.Empty(t, h.snapshot().Pending)
}

func TestController_NeverTwoActivePipes(t *testing.T) {
	h := newHarness(t, nil)
	h.resolver.add("a", "A")
	h.resolver.add("b", "B")

	h.play("a")
	h.waitEvent(EventTrackStarted)
	h.stream("")
	h.waitEvent(EventStreamStarted)
	h.play("b")
	h.waitEvent(EventTrackStarted)
	h.stream("")
	h.waitEvent(EventStreamStarted)

	s := h.gateway.current()
	assert.Equal(t, 1, s.activePipes())
	assert.Equal(t, 4, s.pipeCount())
}

func TestIsPlaylistQuery(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"https://www.youtube.com/playlist?list=PL1", true},
		{"https://www.youtube.com/watch?v=abc&list=RD1", true},
		{"lofi Playlist", true},
		{"never gonna give you up", false},
		{"https://www.youtube.com/watch?v=abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, isPlaylistQuery(tt.query))
		})
	}
}
