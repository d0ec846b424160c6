// Package chat turns prefixed text-channel messages into session commands.
package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/app/session"
	"github.com/osa030/19cast/internal/domain/message"
	"github.com/osa030/19cast/internal/infra/metrics"
)

const (
	// commandTimeout bounds one command's wait on the event loop.
	commandTimeout = 10 * time.Second
	// limiterIdle is how long a user's bucket is kept after their last command.
	// An idle bucket is full again, so dropping it loses nothing.
	limiterIdle = 10 * time.Minute
)

// Session is the part of the session manager the router drives.
type Session interface {
	Play(ctx context.Context, req playback.PlayRequest) error
	Stream(ctx context.Context, req playback.StreamRequest) error
	Skip(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	SetVolume(ctx context.Context, percent int) error
	ClearQueue(ctx context.Context) error
	ToggleRepeat(ctx context.Context) (bool, error)
	ToggleShuffle(ctx context.Context) (bool, error)
	ToggleAutoJoin(ctx context.Context) (bool, error)
	Status(ctx context.Context) (*session.Status, error)
}

// Chat sends replies and answers voice-state queries.
type Chat interface {
	Send(channelID, text string) error
	UserVoiceChannel(userID string) (string, error)
}

// Config holds router configuration.
type Config struct {
	Prefix            string
	CommandsPerSecond float64
	CommandBurst      int
}

// Router dispatches commands.
type Router struct {
	config   Config
	session  Session
	chat     Chat
	commands map[string]*command
	names    []string

	limitersMu sync.Mutex
	limiters   map[string]*userLimiter
	lastPrune  time.Time
	now        func() time.Time

	lastChannelMu sync.RWMutex
	lastChannel   string
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRouter creates a router with every built-in command registered.
func NewRouter(config Config, sess Session, chat Chat) *Router {
	if config.Prefix == "" {
		config.Prefix = "!"
	}
	if config.CommandsPerSecond <= 0 {
		config.CommandsPerSecond = 2
	}
	if config.CommandBurst <= 0 {
		config.CommandBurst = 4
	}

	r := &Router{
		config:   config,
		session:  sess,
		chat:     chat,
		commands: make(map[string]*command),
		limiters: make(map[string]*userLimiter),
		now:      time.Now,
	}
	for _, c := range r.builtins() {
		r.register(c)
	}
	return r
}

func (r *Router) register(c *command) {
	r.commands[c.name] = c
	for _, a := range c.aliases {
		r.commands[a] = c
	}
	r.names = append(r.names, c.name)
	sort.Strings(r.names)
}

// LastChannel returns the channel the most recent command came from.
func (r *Router) LastChannel() string {
	r.lastChannelMu.RLock()
	defer r.lastChannelMu.RUnlock()
	return r.lastChannel
}

// Handle runs the command in msg, if any, and sends the reply to msg's channel.
func (r *Router) Handle(ctx context.Context, msg message.Message) {
	if msg.AuthorBot {
		return
	}
	name, args, ok := parse(r.config.Prefix, msg.Content)
	if !ok {
		return
	}
	cmd, ok := r.commands[name]
	if !ok {
		return
	}

	if !r.allow(msg.AuthorID) {
		metrics.CommandsThrottledTotal.Inc()
		zlog.Debug().Msgf("chat: command throttled: user=%s command=%s", msg.AuthorName, cmd.name)
		return
	}

	r.lastChannelMu.Lock()
	r.lastChannel = msg.ChannelID
	r.lastChannelMu.Unlock()

	metrics.CommandsTotal.WithLabelValues("chat", cmd.name).Inc()
	zlog.Info().Msgf("chat: command: user=%s command=%s args=%q", msg.AuthorName, cmd.name, args)

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	reply, err := cmd.run(ctx, msg, args)
	if err != nil {
		zlog.Debug().Msgf("chat: command failed: command=%s error=%v", cmd.name, err)
		reply = errorReply(err)
	}
	if reply == "" {
		return
	}
	if err := r.chat.Send(msg.ChannelID, reply); err != nil {
		zlog.Error().Msgf("chat: failed to send reply: channel=%s error=%v", msg.ChannelID, err)
	}
}

// allow applies the per-user token bucket.
func (r *Router) allow(userID string) bool {
	r.limitersMu.Lock()
	defer r.limitersMu.Unlock()

	now := r.now()
	if now.Sub(r.lastPrune) >= limiterIdle {
		r.pruneLimiters(now)
	}

	ul, ok := r.limiters[userID]
	if !ok {
		ul = &userLimiter{lim: rate.NewLimiter(rate.Limit(r.config.CommandsPerSecond), r.config.CommandBurst)}
		r.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.lim.AllowN(now, 1)
}

// pruneLimiters drops buckets idle for longer than limiterIdle.
// Callers hold limitersMu.
func (r *Router) pruneLimiters(now time.Time) {
	for id, ul := range r.limiters {
		if now.Sub(ul.lastSeen) > limiterIdle {
			delete(r.limiters, id)
		}
	}
	r.lastPrune = now
}

// parse splits "!name args" into a lower-cased name and the trimmed rest.
func parse(prefix, content string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	content = strings.TrimPrefix(content, prefix)
	name, args, _ = strings.Cut(content, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(args), true
}
