package moderation

import "strings"

// Filter is the content-moderation collaborator. The real filter runs as an
// external service; the core only asks yes/no.
type Filter interface {
	// IsClean reports whether the text is acceptable for display.
	IsClean(text string) bool
}

// WordlistFilter is the built-in fallback: a flat substring blocklist over
// the lowercased input. Good enough for nicknames until the real filter is
// wired in.
type WordlistFilter struct {
	blocked []string
}

func NewWordlistFilter(blocked []string) *WordlistFilter {
	lowered := make([]string, 0, len(blocked))
	for _, w := range blocked {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return &WordlistFilter{blocked: lowered}
}

func (f *WordlistFilter) IsClean(text string) bool {
	lowered := strings.ToLower(text)
	for _, w := range f.blocked {
		if strings.Contains(lowered, w) {
			return false
		}
	}
	return true
}
