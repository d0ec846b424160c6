package chat

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19cast/internal/app/notification"
)

// Announcer posts notifications to a text channel. It is a notification
// subscriber.
type Announcer struct {
	chat     Chat
	channel  string
	fallback func() string
}

// NewAnnouncer creates an announcer that posts to channelID, or when that is
// empty, to whatever fallback returns.
func NewAnnouncer(chat Chat, channelID string, fallback func() string) *Announcer {
	return &Announcer{chat: chat, channel: channelID, fallback: fallback}
}

// Send implements notification.Stream.
func (a *Announcer) Send(n *notification.Notification) error {
	if n.Message == "" {
		return nil
	}
	target := a.channel
	if target == "" && a.fallback != nil {
		target = a.fallback()
	}
	if target == "" {
		zlog.Debug().Msgf("chat: no channel for announcement: type=%s", n.Type)
		return nil
	}
	return a.chat.Send(target, n.Message)
}
