package writing

import (
	"strings"
	"unicode/utf8"

	"inkwell/internal/model"

	"github.com/google/uuid"
)

const (
	maxTitleLen       = 200
	maxProjectNameLen = 100
	maxDescriptionLen = 500
	maxNotesLen       = 1000
	maxTagLen         = 50
	maxTags           = 20
)

func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid("invalid %s id %q", kind, id)
	}
	return nil
}

func checkText(field, v string, minLen, maxLen int) (string, error) {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if n < minLen {
		if minLen == 1 {
			return "", invalid("%s is required", field)
		}
		return "", invalid("%s must be at least %d characters", field, minLen)
	}
	if n > maxLen {
		return "", invalid("%s cannot exceed %d characters", field, maxLen)
	}
	return v, nil
}

// NormalizeTags trims, lowercases and de-duplicates project tags, keeping
// the first maxTags.
func NormalizeTags(tags []string) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(tags))

	for _, raw := range tags {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return nil, invalid("tag %q cannot exceed %d characters", t, maxTagLen)
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)

		if len(out) >= maxTags {
			break
		}
	}

	return out, nil
}

// normalizePages assigns ids to new pages and trims titles.
func normalizePages(pages []model.Page) []model.Page {
	out := make([]model.Page, 0, len(pages))
	for _, p := range pages {
		if _, err := uuid.Parse(p.ID); err != nil {
			p.ID = uuid.NewString()
		}
		p.Title = strings.TrimSpace(p.Title)
		out = append(out, p)
	}
	return out
}

// joinPages renders the document body from its pages. The newline keeps the
// last word of one page from fusing with the first word of the next.
func joinPages(pages []model.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n")
}
