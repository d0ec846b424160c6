package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/osa030/19cast/internal/domain/message"
)

// maxMessageLength is Discord's limit for one message.
const maxMessageLength = 2000

// OnMessage calls fn for every message posted in the guild by someone else.
func (c *Client) OnMessage(fn func(message.Message)) {
	c.addHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.GuildID != c.guildID {
			return
		}
		if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
			return
		}
		fn(toMessage(m.Message))
	})
}

func toMessage(m *discordgo.Message) message.Message {
	name := m.Author.Username
	if m.Member != nil && m.Member.Nick != "" {
		name = m.Member.Nick
	} else if m.Author.GlobalName != "" {
		name = m.Author.GlobalName
	}
	return message.Message{
		ID:         m.ID,
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: name,
		AuthorBot:  m.Author.Bot,
		Content:    m.Content,
	}
}

// Send posts text to channelID, truncated to the message size limit.
func (c *Client) Send(channelID, text string) error {
	if channelID == "" {
		return errors.New("no channel to send to")
	}
	if _, err := c.dg.ChannelMessageSend(channelID, truncate(text, maxMessageLength)); err != nil {
		return errors.Wrap(err, "failed to send message")
	}
	return nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
