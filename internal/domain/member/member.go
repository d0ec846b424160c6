// Package member provides the voice channel Member domain entity.
package member

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrNotInVoice is returned when a user is not in any voice channel.
var ErrNotInVoice = errors.New("user not in any voice channel")

// Member represents a user present in a voice channel.
type Member struct {
	ID          string    // Chat user ID
	DisplayName string    // Display name
	Bot         bool      // Operator accounts (bots, including ourselves)
	ChannelID   string    // Voice channel the member is in
	JoinedAt    time.Time // Time the member was observed joining
}

// New creates a new member observed in the given channel.
func New(id, displayName, channelID string, bot bool) Member {
	return Member{
		ID:          id,
		DisplayName: displayName,
		Bot:         bot,
		ChannelID:   channelID,
		JoinedAt:    time.Now(),
	}
}

// IsListener reports whether the member counts towards channel occupancy.
func (m Member) IsListener() bool {
	return !m.Bot
}

// CountListeners returns the number of non-operator members.
func CountListeners(members []Member) int {
	n := 0
	for _, m := range members {
		if m.IsListener() {
			n++
		}
	}
	return n
}
