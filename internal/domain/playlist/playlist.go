// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/osa030/19cast/internal/domain/track"
)

// Playlist represents a resolved playlist whose entries are not yet playable.
type Playlist struct {
	Title     string           // Playlist title
	SourceRef string           // Playlist URL or query
	Entries   []track.Metadata // Entries in playlist order
}

// Truncate keeps at most max entries. A non-positive max keeps everything.
func (p *Playlist) Truncate(max int) {
	if max > 0 && len(p.Entries) > max {
		p.Entries = p.Entries[:max]
	}
}

// Descriptors returns one unresolved descriptor per entry, in order.
func (p *Playlist) Descriptors(requester track.Requester) []*track.Descriptor {
	out := make([]*track.Descriptor, 0, len(p.Entries))
	for _, e := range p.Entries {
		if e.SourceRef == "" {
			continue
		}
		out = append(out, track.NewOnDemand(e, requester))
	}
	return out
}

// TotalDuration returns the summed known duration of all entries.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, e := range p.Entries {
		total += e.Duration
	}
	return total
}

// DisplayTitle returns the title, or a placeholder when it is unknown.
func (p *Playlist) DisplayTitle() string {
	if p.Title == "" {
		return "Unknown Playlist"
	}
	return p.Title
}
