// Package queue provides the ordered track store behind the playback controller.
package queue

import "github.com/osa030/19cast/internal/domain/track"

// Store holds pending tracks, the current slot and the mode flags.
// It is not safe for concurrent use; the playback controller owns it
// and touches it only from the event loop.
type Store struct {
	pending []*track.Descriptor
	current *track.Descriptor
	repeat  bool
	shuffle bool // Reserved; stored and reported only
}

// NewStore creates an idle store.
func NewStore() *Store {
	return &Store{
		pending: make([]*track.Descriptor, 0),
	}
}

// Enqueue appends a track to the tail.
func (s *Store) Enqueue(t *track.Descriptor) {
	s.pending = append(s.pending, t)
}

// EnqueueBatch appends tracks in order. Callers bound the batch size.
func (s *Store) EnqueueBatch(ts []*track.Descriptor) {
	s.pending = append(s.pending, ts...)
}

// Advance moves to the next track.
// With repeat on and a current track, the current track is returned again
// and pending is left untouched.
func (s *Store) Advance() (*track.Descriptor, bool) {
	if s.repeat && s.current != nil {
		return s.current, true
	}
	return s.pop()
}

// Skip moves to the next track regardless of repeat.
func (s *Store) Skip() (*track.Descriptor, bool) {
	return s.pop()
}

func (s *Store) pop() (*track.Descriptor, bool) {
	if len(s.pending) == 0 {
		s.current = nil
		return nil, false
	}
	next := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	s.current = next
	return next, true
}

// SetCurrent places a track directly into the current slot.
func (s *Store) SetCurrent(t *track.Descriptor) {
	s.current = t
}

// Current returns the current track.
func (s *Store) Current() (*track.Descriptor, bool) {
	return s.current, s.current != nil
}

// PeekAll returns a snapshot of pending tracks, excluding current.
func (s *Store) PeekAll() []*track.Descriptor {
	out := make([]*track.Descriptor, len(s.pending))
	copy(out, s.pending)
	return out
}

// Len returns the number of pending tracks.
func (s *Store) Len() int {
	return len(s.pending)
}

// Clear empties pending and current together.
func (s *Store) Clear() {
	s.pending = make([]*track.Descriptor, 0)
	s.current = nil
}

// IsIdle reports whether nothing is pending and nothing is current.
func (s *Store) IsIdle() bool {
	return len(s.pending) == 0 && s.current == nil
}

// Contains reports whether pred matches current or any pending track.
func (s *Store) Contains(pred func(*track.Descriptor) bool) bool {
	if s.current != nil && pred(s.current) {
		return true
	}
	for _, t := range s.pending {
		if pred(t) {
			return true
		}
	}
	return false
}

// SetRepeat sets the repeat flag.
func (s *Store) SetRepeat(on bool) { s.repeat = on }

// Repeat returns the repeat flag.
func (s *Store) Repeat() bool { return s.repeat }

// SetShuffle sets the shuffle flag.
func (s *Store) SetShuffle(on bool) { s.shuffle = on }

// Shuffle returns the shuffle flag.
func (s *Store) Shuffle() bool { return s.shuffle }
