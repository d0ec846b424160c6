package presence

import (
	"sort"
	"sync"

	"github.com/osa030/19cast/internal/domain/member"
)

// Roster tracks which listeners are in which voice channel.
// Operator accounts are never stored.
type Roster struct {
	mu       sync.RWMutex
	channels map[string]map[string]member.Member
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{
		channels: make(map[string]map[string]member.Member),
	}
}

// Join records m in channelID. It returns false for operators and for
// members already recorded there.
func (r *Roster) Join(channelID string, m member.Member) bool {
	if !m.IsListener() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channelID]
	if !ok {
		members = make(map[string]member.Member)
		r.channels[channelID] = members
	}
	if _, exists := members[m.ID]; exists {
		return false
	}
	m.ChannelID = channelID
	members[m.ID] = m
	return true
}

// Leave removes memberID from channelID and reports whether it was present.
func (r *Roster) Leave(channelID, memberID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channelID]
	if !ok {
		return false
	}
	if _, exists := members[memberID]; !exists {
		return false
	}
	delete(members, memberID)
	if len(members) == 0 {
		delete(r.channels, channelID)
	}
	return true
}

// Replace sets the listeners of channelID to members.
func (r *Roster) Replace(channelID string, members []member.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.channels, channelID)
	for _, m := range members {
		if !m.IsListener() {
			continue
		}
		if r.channels[channelID] == nil {
			r.channels[channelID] = make(map[string]member.Member)
		}
		m.ChannelID = channelID
		r.channels[channelID][m.ID] = m
	}
}

// Members returns the listeners in channelID ordered by join time.
func (r *Roster) Members(channelID string) []member.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]member.Member, 0, len(r.channels[channelID]))
	for _, m := range r.channels[channelID] {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})
	return result
}

// Count returns the number of listeners in channelID.
func (r *Roster) Count(channelID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channelID])
}
