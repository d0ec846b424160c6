// Package discord adapts a discordgo session to the playback, presence and
// chat ports.
package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// readyTimeout bounds the wait for the gateway's READY event.
const readyTimeout = 30 * time.Second

func init() {
	discordgo.Logger = func(level, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch level {
		case discordgo.LogError:
			zlog.Error().Msgf("discordgo: %s", msg)
		case discordgo.LogWarning:
			zlog.Warn().Msgf("discordgo: %s", msg)
		case discordgo.LogInformational:
			zlog.Info().Msgf("discordgo: %s", msg)
		default:
			zlog.Debug().Msgf("discordgo: %s", msg)
		}
	}
}

// Client owns the Discord gateway session for one guild.
type Client struct {
	dg      *discordgo.Session
	guildID string

	mu       sync.Mutex
	handlers []func()
}

// New creates a client. The connection is opened by Open.
func New(token, guildID string) (*Client, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}
	dg.LogLevel = discordgo.LogWarning
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Client{dg: dg, guildID: guildID}, nil
}

// Open connects to the gateway and waits for the initial state.
func (c *Client) Open() error {
	ready := make(chan struct{})
	var once sync.Once
	remove := c.dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		zlog.Info().Msgf("discord ready: user=%s guilds=%d", r.User.Username, len(r.Guilds))
		once.Do(func() { close(ready) })
	})
	defer remove()

	if err := c.dg.Open(); err != nil {
		return errors.Wrap(err, "failed to open discord session")
	}
	select {
	case <-ready:
		return nil
	case <-time.After(readyTimeout):
		_ = c.dg.Close()
		return errors.Newf("discord gateway not ready after %s", readyTimeout)
	}
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	c.mu.Lock()
	for _, remove := range c.handlers {
		remove()
	}
	c.handlers = nil
	c.mu.Unlock()
	return c.dg.Close()
}

// GuildID returns the guild this client serves.
func (c *Client) GuildID() string {
	return c.guildID
}

// UserID returns the bot's own user ID once connected.
func (c *Client) UserID() string {
	if c.dg.State == nil || c.dg.State.User == nil {
		return ""
	}
	return c.dg.State.User.ID
}

func (c *Client) addHandler(handler interface{}) {
	remove := c.dg.AddHandler(handler)
	c.mu.Lock()
	c.handlers = append(c.handlers, remove)
	c.mu.Unlock()
}

// SetStatus shows label as the bot's activity.
func (c *Client) SetStatus(label string) error {
	if err := c.dg.UpdateGameStatus(0, label); err != nil {
		return errors.Wrap(err, "failed to update status")
	}
	return nil
}
