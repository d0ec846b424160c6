package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/19cast/internal/app/playback"
	"github.com/osa030/19cast/internal/app/session"
	"github.com/osa030/19cast/internal/domain/member"
	"github.com/osa030/19cast/internal/domain/message"
	"github.com/osa030/19cast/internal/domain/track"
)

var errVolumeArg = errors.New("volume must be a number")

type command struct {
	name    string
	aliases []string
	help    string
	run     func(ctx context.Context, msg message.Message, args string) (string, error)
}

// builtins returns the command table. Commands that change playback reply
// only on failure; the outcome is announced from the controller's events.
func (r *Router) builtins() []*command {
	return []*command{
		{name: "play", help: "Play a YouTube video or add to queue", run: r.play},
		{name: "stream", help: "Play an Icecast stream", run: r.stream},
		{name: "volume", help: "Change the volume (0-100)", run: r.volume},
		{name: "pause", help: "Pause the current track", run: r.simple(r.session.Pause)},
		{name: "resume", help: "Resume the current track", run: r.simple(r.session.Resume)},
		{name: "skip", help: "Skip the current track", run: r.simple(r.session.Skip)},
		{name: "queue", help: "Show the current queue", run: r.queue},
		{name: "clear", help: "Clear the music queue", run: r.simple(r.session.ClearQueue)},
		{name: "stop", help: "Stop playing and disconnect", run: r.simple(r.session.Stop)},
		{name: "nowplaying", aliases: []string{"np"}, help: "Show current track info", run: r.nowPlaying},
		{name: "repeat", help: "Toggle repeat of the current track", run: r.toggle("Repeat", r.session.ToggleRepeat)},
		{name: "shuffle", help: "Toggle shuffle", run: r.toggle("Shuffle", r.session.ToggleShuffle)},
		{name: "autorejoin", help: "Toggle auto-rejoin when users join voice channel", run: r.toggle("Auto-rejoin", r.session.ToggleAutoJoin)},
		{name: "debug", help: "Show debug information", run: r.debug},
		{name: "test", help: "Test basic bot functionality", run: func(context.Context, message.Message, string) (string, error) {
			return "✅ Bot is responding! Commands are working.", nil
		}},
		{name: "help", help: "Show this message", run: r.help},
	}
}

func requester(msg message.Message) track.Requester {
	return track.Requester{ID: msg.AuthorID, Name: msg.AuthorName, Type: track.RequesterTypeUser}
}

func (r *Router) play(ctx context.Context, msg message.Message, args string) (string, error) {
	if args == "" {
		return "", playback.ErrEmptyQuery
	}
	channelID, err := r.chat.UserVoiceChannel(msg.AuthorID)
	if err != nil {
		return "", err
	}
	return "", r.session.Play(ctx, playback.PlayRequest{
		ChannelID: channelID,
		Query:     args,
		Requester: requester(msg),
	})
}

func (r *Router) stream(ctx context.Context, msg message.Message, args string) (string, error) {
	channelID, err := r.chat.UserVoiceChannel(msg.AuthorID)
	if err != nil {
		return "", err
	}
	return "", r.session.Stream(ctx, playback.StreamRequest{
		ChannelID: channelID,
		URL:       args,
		Requester: requester(msg),
	})
}

func (r *Router) volume(ctx context.Context, _ message.Message, args string) (string, error) {
	percent, err := strconv.Atoi(strings.TrimSuffix(args, "%"))
	if err != nil {
		return "", errVolumeArg
	}
	return "", r.session.SetVolume(ctx, percent)
}

func (r *Router) simple(fn func(ctx context.Context) error) func(context.Context, message.Message, string) (string, error) {
	return func(ctx context.Context, _ message.Message, _ string) (string, error) {
		return "", fn(ctx)
	}
}

func (r *Router) toggle(label string, fn func(ctx context.Context) (bool, error)) func(context.Context, message.Message, string) (string, error) {
	return func(ctx context.Context, _ message.Message, _ string) (string, error) {
		on, err := fn(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s", label, enabled(on)), nil
	}
}

func (r *Router) queue(ctx context.Context, _ message.Message, _ string) (string, error) {
	st, err := r.session.Status(ctx)
	if err != nil {
		return "", err
	}
	return formatQueue(st), nil
}

func (r *Router) nowPlaying(ctx context.Context, _ message.Message, _ string) (string, error) {
	st, err := r.session.Status(ctx)
	if err != nil {
		return "", err
	}
	return formatNowPlaying(st), nil
}

func (r *Router) debug(ctx context.Context, _ message.Message, _ string) (string, error) {
	st, err := r.session.Status(ctx)
	if err != nil {
		return "", err
	}
	return formatDebug(st), nil
}

func (r *Router) help(context.Context, message.Message, string) (string, error) {
	var b strings.Builder
	b.WriteString("**Commands**\n")
	for _, name := range r.names {
		c := r.commands[name]
		fmt.Fprintf(&b, "`%s%s`", r.config.Prefix, c.name)
		for _, a := range c.aliases {
			fmt.Fprintf(&b, " `%s%s`", r.config.Prefix, a)
		}
		fmt.Fprintf(&b, " - %s\n", c.help)
	}
	return b.String(), nil
}

// errorReply renders a command failure for the channel.
func errorReply(err error) string {
	var perr *playback.Error
	switch {
	case errors.As(err, &perr):
		return perr.UserMessage()
	case errors.Is(err, member.ErrNotInVoice):
		return "You need to be in a voice channel to use this command!"
	case errors.Is(err, playback.ErrEmptyQuery):
		return "Please tell me what to play!"
	case errors.Is(err, playback.ErrNothingPlaying):
		return "Nothing is currently playing!"
	case errors.Is(err, playback.ErrNothingPaused):
		return "Nothing is currently paused!"
	case errors.Is(err, playback.ErrSkipLive):
		return "Cannot skip a live stream! Use `stop` or `play` instead."
	case errors.Is(err, playback.ErrVolumeRange), errors.Is(err, errVolumeArg):
		return "Volume must be between 0 and 100!"
	case errors.Is(err, playback.ErrNotConnected), errors.Is(err, playback.ErrNoChannel):
		return "Not connected to a voice channel!"
	case errors.Is(err, session.ErrNotRunning):
		return "❌ The player is shutting down."
	case errors.Is(err, context.DeadlineExceeded):
		return "❌ The player is busy, try again."
	default:
		return fmt.Sprintf("❌ %s", err)
	}
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
