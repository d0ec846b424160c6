package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/19cast/internal/domain/track"
)

// DuplicateTrackFilter rejects tracks that are already current or pending.
// Detects:
// - Same source reference or resolved stream URL
// - Alternate uploads (normalized title + same uploader)
// Excludes:
// - Covers (same title but different uploader)
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Rejects tracks already in the queue, including re-uploads and remasters; covers are allowed"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// AppliesTo returns which requester types this filter applies to.
func (f *DuplicateTrackFilter) AppliesTo(requesterType track.RequesterType) bool {
	return requesterType == track.RequesterTypeUser
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the track is a duplicate.
func (f *DuplicateTrackFilter) Check(ctx context.Context, requested *track.Descriptor, q QueueView) Result {
	dup := q.Contains(func(queued *track.Descriptor) bool {
		if queued.SourceRef != "" && queued.SourceRef == requested.SourceRef {
			return true
		}
		if sameStream(queued, requested) {
			return true
		}
		return isAlternateUpload(queued, requested)
	})
	if dup {
		return Reject("duplicate_track")
	}
	return Accept()
}

func sameStream(a, b *track.Descriptor) bool {
	sa, okA := a.Stream()
	sb, okB := b.Stream()
	return okA && okB && sa.URL != "" && sa.URL == sb.URL
}

// isAlternateUpload checks if two tracks are the same song uploaded differently.
func isAlternateUpload(a, b *track.Descriptor) bool {
	if a.Title == "" || b.Title == "" {
		return false
	}
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	// Same normalized title - covers by other uploaders are allowed
	return a.Uploader != "" && strings.EqualFold(normalizeUploader(a.Uploader), normalizeUploader(b.Uploader))
}

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}
	uploadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*[\(\[]\s*official\s+(music\s+)?(video|audio|lyric\s+video)\s*[\)\]]`),
		regexp.MustCompile(`\s*[\(\[]\s*(lyrics?|audio|hd|hq|4k)\s*[\)\]]`),
		regexp.MustCompile(`\s*[\(\[]\s*visuali[sz]er\s*[\)\]]`),
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*-\s*live\b`),           // "- Live"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	whitespace = regexp.MustCompile(`\s+`)
	topicSuffix = regexp.MustCompile(`\s*-\s*topic$`)
)

// normalizeTitle removes upload decorations, remaster and version details.
func normalizeTitle(name string) string {
	normalized := strings.ToLower(name)

	for _, group := range [][]*regexp.Regexp{uploadPatterns, remasterPatterns, versionPatterns} {
		for _, pattern := range group {
			normalized = pattern.ReplaceAllString(normalized, "")
		}
	}

	normalized = strings.TrimSpace(normalized)
	normalized = whitespace.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}

// normalizeUploader folds auto-generated "Artist - Topic" channels into the artist.
func normalizeUploader(uploader string) string {
	return topicSuffix.ReplaceAllString(strings.ToLower(strings.TrimSpace(uploader)), "")
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
