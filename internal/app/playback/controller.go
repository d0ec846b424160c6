package playback

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/filter"
	"github.com/osa030/19cast/internal/app/queue"
	"github.com/osa030/19cast/internal/domain/playlist"
	"github.com/osa030/19cast/internal/domain/track"
	"github.com/osa030/19cast/internal/infra/metrics"
)

// Config holds controller configuration.
type Config struct {
	DefaultStreamURL string
	DefaultVolume    float64       // 0.0-1.0; values outside are clamped
	StopSettle       time.Duration // Max wait for a stopped pipe to release the transport
	ProbeTimeout     time.Duration
	ResolveTimeout   time.Duration
	ConnectTimeout   time.Duration
	PlaylistLimit    int
	RejectMessage    func(code string) string // Text for filter rejection codes
}

// Deps are the collaborators the controller drives.
type Deps struct {
	Gateway  Gateway
	Resolver Resolver
	Prober   Prober
	Filters  *filter.Chain
	// Post marshals fn onto the event loop. Returns false once the loop is gone.
	Post func(fn func()) bool
}

// PlayRequest asks for an on-demand track or playlist.
type PlayRequest struct {
	ChannelID string // Voice channel to play in; empty keeps the current one
	Query     string
	Requester track.Requester
}

// StreamRequest asks for a live stream.
type StreamRequest struct {
	ChannelID string
	URL       string // Empty selects the default stream
	Requester track.Requester
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	Mode      Mode
	Connected bool
	ChannelID string
	Current   *track.Descriptor
	Pending   []*track.Descriptor
	Volume    float64
	Repeat    bool
	Shuffle   bool
	Paused    bool
	Resolving bool   // Current slot is being resolved
	StreamURL string // Set in ModePlayingLiveStream
}

// Controller owns the queue, the voice session and the single audio pipe.
//
// It is not safe for concurrent use. Every method except NewController must
// run on the event loop; off-loop work (connect, resolve, probe) reports back
// through Deps.Post.
type Controller struct {
	config   Config
	gateway  Gateway
	resolver Resolver
	prober   Prober
	filters  *filter.Chain
	post     func(func()) bool

	store   *queue.Store
	mode    Mode
	session Session
	pipe    Pipe
	pipeGen uint64 // Bumped when a pipe is started or halted; stale completions are ignored
	volume  float64
	live    *track.Descriptor

	// Slot resolution: at most one in flight, for the current descriptor.
	slotGen     uint64
	slotPending bool

	// Request ordering. Later conflicting requests win; a stream only
	// claims the session once its probe has passed.
	reqSeq             uint64
	lastPlaySeq        uint64
	lastStreamSeq      uint64
	committedStreamSeq uint64
	lastResetSeq       uint64

	// Play outcomes are applied in request order.
	playOrder []uint64
	heldPlays map[uint64]playOutcome

	eventCh chan Event
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new playback controller.
func NewController(config Config, deps Deps) *Controller {
	if config.StopSettle <= 0 {
		config.StopSettle = 2 * time.Second
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 10 * time.Second
	}
	if config.ResolveTimeout <= 0 {
		config.ResolveTimeout = time.Minute
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 15 * time.Second
	}
	if config.PlaylistLimit <= 0 {
		config.PlaylistLimit = 50
	}
	config.DefaultVolume = math.Max(0, math.Min(1, config.DefaultVolume))

	ctx, cancel := context.WithCancel(context.Background())
	metrics.Volume.Set(config.DefaultVolume)
	return &Controller{
		config:    config,
		gateway:   deps.Gateway,
		resolver:  deps.Resolver,
		prober:    deps.Prober,
		filters:   deps.Filters,
		post:      deps.Post,
		store:     queue.NewStore(),
		mode:      ModeIdle,
		volume:    config.DefaultVolume,
		heldPlays: make(map[uint64]playOutcome),
		eventCh:   make(chan Event, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Play resolves req.Query off the loop and plays or enqueues the result.
// Leaving a live stream happens immediately; the outcome of the resolution
// is reported through events.
func (c *Controller) Play(req PlayRequest) error {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return ErrEmptyQuery
	}
	channelID, needConnect, err := c.target(req.ChannelID)
	if err != nil {
		return err
	}

	if c.mode == ModePlayingLiveStream {
		c.haltPipe()
		c.live = nil
		c.mode = ModeIdle
		c.emit(Event{Type: EventModeChanged, Message: "🔄 Switched from stream to music queue"})
	}

	c.reqSeq++
	seq := c.reqSeq
	c.lastPlaySeq = seq
	c.playOrder = append(c.playOrder, seq)
	isPlaylist := isPlaylistQuery(query)

	zlog.Info().Msgf("playback: play requested: seq=%d query=%s playlist=%t requester=%s", seq, query, isPlaylist, req.Requester.Name)

	go func() {
		out := playOutcome{seq: seq, query: query, channelID: channelID, requester: req.Requester}
		out.session, out.connectErr = c.connect(channelID, needConnect)
		if out.connectErr == nil {
			ctx, cancel := context.WithTimeout(c.ctx, c.config.ResolveTimeout)
			start := time.Now()
			if isPlaylist {
				out.playlist, out.err = c.resolver.ResolvePlaylist(ctx, query, c.config.PlaylistLimit)
				observe("playlist", start)
			} else {
				out.result, out.err = c.resolver.Resolve(ctx, query)
				observe("resolve", start)
			}
			cancel()
		}
		c.post(func() { c.onPlayOutcome(out) })
	}()
	return nil
}

type playOutcome struct {
	seq        uint64
	query      string
	channelID  string
	requester  track.Requester
	session    Session
	connectErr error
	result     Result
	playlist   *playlist.Playlist
	err        error
}

// onPlayOutcome holds out until every earlier play has been applied, so
// tracks are started or enqueued in the order they were requested.
func (c *Controller) onPlayOutcome(out playOutcome) {
	c.heldPlays[out.seq] = out
	for len(c.playOrder) > 0 {
		next, ok := c.heldPlays[c.playOrder[0]]
		if !ok {
			return
		}
		delete(c.heldPlays, next.seq)
		c.playOrder = c.playOrder[1:]
		c.onPlayResolved(next)
	}
}

func (c *Controller) onPlayResolved(out playOutcome) {
	if c.committedStreamSeq > out.seq || c.lastResetSeq > out.seq {
		c.dropOrphanSession(out.session, out.seq)
		c.emit(Event{Type: EventSuperseded, Message: fmt.Sprintf("⏭️ Request superseded: **%s**", out.query)})
		return
	}
	if out.connectErr != nil {
		c.report(newError(KindConnect, "play", out.channelID, out.connectErr))
		return
	}
	c.attachSession(out.session)
	if out.err != nil {
		c.report(newError(KindResolution, "play", out.query, out.err))
		return
	}

	if out.playlist != nil {
		c.enqueuePlaylist(out.playlist, out.requester)
		return
	}

	d := track.NewResolved(out.result.Metadata, out.result.Stream, out.requester)
	if res := c.filters.Execute(c.ctx, d, c.store); !res.Accepted {
		c.report(newError(KindRejected, "play", d.DisplayTitle(), errors.New(c.rejectMessage(res.Code))))
		return
	}

	if c.busy() {
		c.store.Enqueue(d)
		pos := c.store.Len()
		c.emit(Event{
			Type:     EventTrackQueued,
			Track:    clone(d),
			Position: pos,
			Message:  fmt.Sprintf("✅ Added to queue (position %d): **%s**", pos, d.DisplayTitle()),
		})
		return
	}
	c.store.SetCurrent(d)
	c.startTrack(d)
}

func (c *Controller) enqueuePlaylist(pl *playlist.Playlist, requester track.Requester) {
	pl.Truncate(c.config.PlaylistLimit)
	descs := pl.Descriptors(requester)
	if len(descs) == 0 {
		c.report(newError(KindResolution, "playlist", pl.DisplayTitle(), errors.New("playlist has no playable entries")))
		return
	}
	c.store.EnqueueBatch(descs)
	c.emit(Event{
		Type:     EventPlaylistQueued,
		Position: len(descs),
		Message:  fmt.Sprintf("📋 Adding playlist: **%s** (%d tracks)", pl.DisplayTitle(), len(descs)),
	})
	if !c.busy() {
		c.playNext()
	}
}

// Stream probes the requested live stream off the loop and switches to it
// once it is reachable. A probe failure leaves the current state untouched.
func (c *Controller) Stream(req StreamRequest) error {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		url = c.config.DefaultStreamURL
	}
	if url == "" {
		return ErrEmptyQuery
	}
	channelID, needConnect, err := c.target(req.ChannelID)
	if err != nil {
		return err
	}

	c.reqSeq++
	seq := c.reqSeq
	c.lastStreamSeq = seq

	zlog.Info().Msgf("playback: stream requested: seq=%d url=%s requester=%s", seq, url, req.Requester.Name)
	c.emit(Event{Type: EventStreamConnecting, Message: fmt.Sprintf("🔄 Connecting to stream: **%s**", url)})

	go func() {
		out := streamOutcome{seq: seq, url: url, channelID: channelID, requester: req.Requester}
		out.session, out.connectErr = c.connect(channelID, needConnect)
		if out.connectErr == nil {
			start := time.Now()
			out.probeErr = c.prober.Probe(c.ctx, url, c.config.ProbeTimeout)
			observe("probe", start)
		}
		c.post(func() { c.onStreamReady(out) })
	}()
	return nil
}

type streamOutcome struct {
	seq        uint64
	url        string
	channelID  string
	requester  track.Requester
	session    Session
	connectErr error
	probeErr   error
}

func (c *Controller) onStreamReady(out streamOutcome) {
	if c.lastPlaySeq > out.seq || c.lastStreamSeq > out.seq || c.lastResetSeq > out.seq {
		c.dropOrphanSession(out.session, out.seq)
		c.emit(Event{Type: EventSuperseded, Message: fmt.Sprintf("⏭️ Request superseded: **%s**", out.url)})
		return
	}
	if out.connectErr != nil {
		c.report(newError(KindConnect, "stream", out.channelID, out.connectErr))
		return
	}
	c.attachSession(out.session)
	if out.probeErr != nil {
		c.report(newError(KindProbe, "stream", out.url, out.probeErr))
		return
	}
	if c.session == nil || !c.session.IsConnected() {
		c.report(newError(KindConnect, "stream", out.channelID, ErrNotConnected))
		return
	}

	c.committedStreamSeq = out.seq
	wasLive := c.mode == ModePlayingLiveStream
	c.haltPipe()
	c.abandonSlot()
	if !wasLive {
		c.store.Clear()
	}

	d := track.NewLiveStream(out.url, out.requester)
	stream, _ := d.Stream()
	c.pipeGen++
	gen := c.pipeGen
	pipe, err := c.session.StartPipe(stream, c.volume, c.completion(gen))
	if err != nil {
		c.live = nil
		c.mode = ModeIdle
		c.report(newError(KindPipe, "stream", out.url, err))
		return
	}

	c.pipe = pipe
	c.live = d
	c.mode = ModePlayingLiveStream
	metrics.StreamsStartedTotal.Inc()
	zlog.Info().Msgf("playback: stream started: url=%s", out.url)
	c.emit(Event{Type: EventStreamStarted, Track: clone(d), Message: fmt.Sprintf("✅ Now streaming from: **%s**", out.url)})
}

// Skip stops the current track; its completion advances the queue.
func (c *Controller) Skip() error {
	if c.mode == ModePlayingLiveStream {
		return ErrSkipLive
	}
	if c.pipe != nil {
		// Keep pipeGen so the completion runs the normal advance.
		c.pipe.Stop()
		c.emit(Event{Type: EventSkipped, Track: c.currentCopy(), Message: "Skipped ⏭️"})
		return nil
	}
	if c.slotPending {
		skipped := c.currentCopy()
		c.abandonSlot()
		c.emit(Event{Type: EventSkipped, Track: skipped, Message: "Skipped ⏭️"})
		c.skipToNext()
		return nil
	}
	return ErrNothingPlaying
}

// Pause pauses the active pipe.
func (c *Controller) Pause() error {
	if c.pipe == nil || !c.pipe.IsActive() || c.pipe.IsPaused() {
		return ErrNothingPlaying
	}
	c.pipe.Pause()
	c.emit(Event{Type: EventPaused, Track: c.nowCopy(), Message: "Paused ⏸️"})
	return nil
}

// Resume resumes a paused pipe.
func (c *Controller) Resume() error {
	if c.pipe == nil || !c.pipe.IsPaused() {
		return ErrNothingPaused
	}
	c.pipe.Resume()
	c.emit(Event{Type: EventResumed, Track: c.nowCopy(), Message: "Resumed ▶️"})
	return nil
}

// SetVolume sets the volume in percent. The active pipe changes gain in
// place and later pipes start at the new level.
func (c *Controller) SetVolume(percent int) error {
	if percent < 0 || percent > 100 {
		return ErrVolumeRange
	}
	c.volume = float64(percent) / 100
	if c.pipe != nil {
		c.pipe.SetVolume(c.volume)
	}
	metrics.Volume.Set(c.volume)
	c.emit(Event{Type: EventVolumeChanged, Message: fmt.Sprintf("Volume set to %d%%", percent)})
	return nil
}

// Volume returns the volume in percent.
func (c *Controller) Volume() int {
	return int(c.volume*100 + 0.5)
}

// ClearQueue empties the queue, including the current slot. A track that is
// already rendering plays to its end.
func (c *Controller) ClearQueue() {
	c.abandonSlot()
	c.store.Clear()
	c.emit(Event{Type: EventCleared, Message: "Queue cleared! 🗑️"})
}

// Stop halts playback, clears the queue and leaves the voice channel.
// In-flight play and stream requests are superseded.
func (c *Controller) Stop() error {
	c.reqSeq++
	c.lastResetSeq = c.reqSeq

	connected := c.session != nil && c.session.IsConnected()
	c.haltPipe()
	c.abandonSlot()
	c.store.Clear()
	c.live = nil
	c.mode = ModeIdle

	if c.session != nil {
		if err := c.session.Disconnect(); err != nil {
			zlog.Warn().Msgf("playback: disconnect failed: %v", err)
		}
		c.session = nil
	}
	if !connected {
		return ErrNotConnected
	}
	zlog.Info().Msg("playback: stopped and disconnected")
	c.emit(Event{Type: EventStopped, Message: "Stopped and disconnected! 👋"})
	return nil
}

// SetRepeat sets repeat mode.
func (c *Controller) SetRepeat(on bool) {
	c.store.SetRepeat(on)
}

// SetShuffle sets the shuffle flag. Playback order does not consult it.
func (c *Controller) SetShuffle(on bool) {
	c.store.SetShuffle(on)
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// IsConnectedTo reports whether the session is connected to channelID.
func (c *Controller) IsConnectedTo(channelID string) bool {
	return c.session != nil && c.session.IsConnected() && c.session.ChannelID() == channelID
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Mode:      c.mode,
		Volume:    c.volume,
		Repeat:    c.store.Repeat(),
		Shuffle:   c.store.Shuffle(),
		Resolving: c.slotPending,
		Current:   c.currentCopy(),
	}
	if c.session != nil && c.session.IsConnected() {
		s.Connected = true
		s.ChannelID = c.session.ChannelID()
	}
	if c.pipe != nil {
		s.Paused = c.pipe.IsPaused()
	}
	if c.live != nil {
		s.StreamURL = c.live.SourceRef
		if s.Current == nil {
			s.Current = clone(c.live)
		}
	}
	for _, d := range c.store.PeekAll() {
		s.Pending = append(s.Pending, clone(d))
	}
	return s
}

// Close halts the pipe and releases resources. Call it after the event
// loop has stopped.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.cancel()
	c.haltPipe()
	if c.session != nil {
		_ = c.session.Disconnect()
		c.session = nil
	}
	c.closed = true
	close(c.eventCh)
}

// busy reports whether the current slot is occupied by a pipe or a pending resolution.
func (c *Controller) busy() bool {
	return c.pipe != nil || c.slotPending
}

// playNext advances the store and plays whatever it yields.
func (c *Controller) playNext() {
	if c.slotPending {
		return
	}
	next, ok := c.store.Advance()
	c.playSlot(next, ok)
}

// skipToNext moves past the current slot regardless of repeat.
func (c *Controller) skipToNext() {
	if c.slotPending {
		return
	}
	next, ok := c.store.Skip()
	c.playSlot(next, ok)
}

func (c *Controller) playSlot(d *track.Descriptor, ok bool) {
	if !ok {
		c.mode = ModeIdle
		zlog.Info().Msg("playback: queue finished")
		c.emit(Event{Type: EventQueueFinished, Message: "📭 Queue finished! Use `!play <song>` to add more music."})
		return
	}

	switch d.State() {
	case track.StateResolved:
		c.startTrack(d)
	case track.StateUnresolved:
		c.resolveSlot(d)
	default:
		zlog.Debug().Msgf("playback: skipping unplayable track: title=%s state=%s reason=%s", d.Title, d.State(), d.FailureReason())
		c.skipToNext()
	}
}

func (c *Controller) resolveSlot(d *track.Descriptor) {
	if err := d.BeginResolve(); err != nil {
		zlog.Warn().Msgf("playback: cannot resolve track: title=%s: %v", d.Title, err)
		c.skipToNext()
		return
	}
	c.slotPending = true
	c.slotGen++
	gen := c.slotGen
	ref := d.SourceRef

	zlog.Debug().Msgf("playback: resolving track: gen=%d ref=%s", gen, ref)
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.config.ResolveTimeout)
		defer cancel()
		start := time.Now()
		res, err := c.resolver.Resolve(ctx, ref)
		observe("resolve", start)
		c.post(func() { c.onSlotResolved(gen, d, res, err) })
	}()
}

func (c *Controller) onSlotResolved(gen uint64, d *track.Descriptor, res Result, err error) {
	// The descriptor keeps its outcome even if the slot was abandoned.
	if err != nil {
		_ = d.Fail(err.Error())
	} else {
		_ = d.Resolve(res.Stream)
	}
	if !c.slotPending || gen != c.slotGen {
		return
	}
	c.slotPending = false

	if cur, ok := c.store.Current(); !ok || cur != d {
		return
	}
	if err != nil {
		c.report(newError(KindResolution, "play", d.DisplayTitle(), err))
		c.skipToNext()
		return
	}
	c.startTrack(d)
}

func (c *Controller) abandonSlot() {
	if c.slotPending {
		c.slotPending = false
		c.slotGen++
	}
}

// startTrack renders d, which must be resolved and current.
func (c *Controller) startTrack(d *track.Descriptor) {
	stream, _ := d.Stream()
	if c.session == nil || !c.session.IsConnected() {
		c.store.SetCurrent(nil)
		c.mode = ModeIdle
		c.report(newError(KindConnect, "play", d.DisplayTitle(), ErrNotConnected))
		return
	}

	c.haltPipe()
	c.pipeGen++
	gen := c.pipeGen
	pipe, err := c.session.StartPipe(stream, c.volume, c.completion(gen))
	if err != nil {
		c.store.SetCurrent(nil)
		c.mode = ModeIdle
		c.report(newError(KindPipe, "play", d.DisplayTitle(), err))
		return
	}

	c.pipe = pipe
	c.mode = ModePlayingQueue
	metrics.TracksStartedTotal.Inc()
	zlog.Info().Msgf("playback: track started: title=%s uploader=%s duration=%s", d.Title, d.Uploader, d.Duration)
	c.emit(Event{Type: EventTrackStarted, Track: clone(d), Message: fmt.Sprintf("🎵 Now playing: **%s**", d.DisplayTitle())})
}

// completion returns a pipe callback that marshals onto the loop.
func (c *Controller) completion(gen uint64) func(error) {
	return func(err error) {
		c.post(func() { c.onPipeComplete(gen, err) })
	}
}

func (c *Controller) onPipeComplete(gen uint64, err error) {
	if gen != c.pipeGen || c.pipe == nil {
		return
	}
	c.pipe = nil

	switch c.mode {
	case ModePlayingLiveStream:
		if err == nil {
			err = errors.New("stream ended")
		}
		url := ""
		if c.live != nil {
			url = c.live.SourceRef
		}
		c.report(newError(KindUnexpectedTermination, "stream", url, err))
		c.emit(Event{Type: EventStreamEnded, Track: clone(c.live)})
	case ModePlayingQueue:
		if err != nil {
			zlog.Warn().Msgf("playback: pipe ended with error: %v", err)
			metrics.FailuresTotal.WithLabelValues(KindUnexpectedTermination.String()).Inc()
		}
		c.playNext()
	}
}

// haltPipe stops the active pipe and waits, bounded by StopSettle, for it
// to release the transport. Its completion is ignored.
func (c *Controller) haltPipe() {
	if c.pipe == nil {
		return
	}
	p := c.pipe
	c.pipe = nil
	c.pipeGen++
	p.Stop()

	timer := time.NewTimer(c.config.StopSettle)
	defer timer.Stop()
	select {
	case <-p.Done():
	case <-timer.C:
		zlog.Warn().Msgf("playback: pipe did not settle within %s", c.config.StopSettle)
	}
}

// attachSession adopts s. A different session replaces the old one, which
// is halted and disconnected.
func (c *Controller) attachSession(s Session) {
	if s == nil || s == c.session {
		return
	}
	if c.session != nil {
		c.haltPipe()
		c.abandonSlot()
		c.store.SetCurrent(nil)
		c.live = nil
		c.mode = ModeIdle
		if c.session.IsConnected() {
			if err := c.session.Disconnect(); err != nil {
				zlog.Warn().Msgf("playback: disconnect of replaced session failed: %v", err)
			}
		}
	}
	c.session = s
}

// dropOrphanSession disconnects a session opened by a request that a stop superseded.
func (c *Controller) dropOrphanSession(s Session, seq uint64) {
	if s == nil || s == c.session || c.lastResetSeq <= seq {
		return
	}
	if err := s.Disconnect(); err != nil {
		zlog.Warn().Msgf("playback: disconnect of superseded session failed: %v", err)
	}
}

// target picks the channel for a request and whether a connect is needed.
func (c *Controller) target(channelID string) (string, bool, error) {
	connected := c.session != nil && c.session.IsConnected()
	if channelID == "" {
		if connected {
			return c.session.ChannelID(), false, nil
		}
		return "", false, ErrNoChannel
	}
	return channelID, !connected || c.session.ChannelID() != channelID, nil
}

// connect runs off the loop.
func (c *Controller) connect(channelID string, needed bool) (Session, error) {
	if !needed {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.config.ConnectTimeout)
	defer cancel()
	start := time.Now()
	s, err := c.gateway.Connect(ctx, channelID)
	observe("connect", start)
	return s, err
}

func (c *Controller) rejectMessage(code string) string {
	if c.config.RejectMessage != nil {
		if msg := c.config.RejectMessage(code); msg != "" {
			return msg
		}
	}
	return code
}

func (c *Controller) currentCopy() *track.Descriptor {
	d, _ := c.store.Current()
	return clone(d)
}

// nowCopy returns whatever the pipe is rendering.
func (c *Controller) nowCopy() *track.Descriptor {
	if c.live != nil {
		return clone(c.live)
	}
	return c.currentCopy()
}

func (c *Controller) report(e *Error) {
	zlog.Warn().Msgf("playback: %v", e)
	metrics.FailuresTotal.WithLabelValues(e.Kind.String()).Inc()
	c.emit(Event{Type: EventError, Err: e, Message: e.UserMessage()})
}

// emit sends an event without blocking.
func (c *Controller) emit(e Event) {
	if c.closed {
		return
	}
	e.Mode = c.mode
	metrics.PlaybackMode.Set(float64(c.mode))
	metrics.QueueLength.Set(float64(c.store.Len()))

	select {
	case c.eventCh <- e:
		// Successfully sent
	case <-c.ctx.Done():
		// Context cancelled, don't send
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping event: type=%s", e.Type)
	}
}

func clone(d *track.Descriptor) *track.Descriptor {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func observe(stage string, start time.Time) {
	metrics.ResolveLatency.WithLabelValues(stage).Observe(float64(time.Since(start).Milliseconds()))
}

// isPlaylistQuery reports whether query names a playlist rather than a track.
func isPlaylistQuery(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "playlist") || strings.Contains(q, "list=")
}
