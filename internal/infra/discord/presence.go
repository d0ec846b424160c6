package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/osa030/19cast/internal/domain/member"
)

// PresenceHandler receives voice channel membership changes.
type PresenceHandler interface {
	MemberJoined(channelID string, m member.Member)
	MemberLeft(channelID string, m member.Member)
}

// CurrentMembers lists the members in channelID from the gateway state.
func (c *Client) CurrentMembers(ctx context.Context, channelID string) ([]member.Member, error) {
	guild, err := c.dg.State.Guild(c.guildID)
	if err != nil {
		return nil, errors.Wrap(err, "error retrieving guild")
	}

	var members []member.Member
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		members = append(members, c.toMember(vs))
	}
	return members, nil
}

// UserVoiceChannel returns the voice channel userID is in.
func (c *Client) UserVoiceChannel(userID string) (string, error) {
	guild, err := c.dg.State.Guild(c.guildID)
	if err != nil {
		return "", errors.Wrap(err, "error retrieving guild")
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", member.ErrNotInVoice
}

// OnPresence forwards voice state changes in the guild to h.
func (c *Client) OnPresence(h PresenceHandler) {
	c.addHandler(func(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
		if vsu.GuildID != c.guildID {
			return
		}
		left, joined := transitions(vsu.BeforeUpdate, vsu.VoiceState)
		m := c.toMember(vsu.VoiceState)
		if left != "" {
			h.MemberLeft(left, m)
		}
		if joined != "" {
			h.MemberJoined(joined, m)
		}
	})
}

// transitions returns the channel left and the channel joined between two
// voice states. Mute and deafen updates return neither.
func transitions(before, after *discordgo.VoiceState) (left, joined string) {
	var from, to string
	if before != nil {
		from = before.ChannelID
	}
	if after != nil {
		to = after.ChannelID
	}
	if from == to {
		return "", ""
	}
	return from, to
}

func (c *Client) toMember(vs *discordgo.VoiceState) member.Member {
	name := vs.UserID
	bot := false

	m := vs.Member
	if m == nil {
		if cached, err := c.dg.State.Member(c.guildID, vs.UserID); err == nil {
			m = cached
		}
	}
	if m != nil {
		if m.Nick != "" {
			name = m.Nick
		}
		if m.User != nil {
			bot = m.User.Bot
			if m.Nick == "" {
				name = m.User.Username
				if m.User.GlobalName != "" {
					name = m.User.GlobalName
				}
			}
		}
	}
	if vs.UserID == c.UserID() {
		bot = true
	}
	return member.New(vs.UserID, name, vs.ChannelID, bot)
}
