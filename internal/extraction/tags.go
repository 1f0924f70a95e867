package extraction

import (
	"strings"
)

// MaxTags is the number of tags a task may carry.
const MaxTags = 10

// pageTagRules derive a tag from the page the input was captured on.
// Only the first matching rule applies.
var pageTagRules = []labelRule{
	{"github.com", "development"},
	{"docs.google.com", "documentation"},
	{"calendar.google.com", "scheduling"},
	{"slack.com", "communication"},
}

// PotentialTags returns up to five unique tags suggested by keywords in the
// transcript, in technology, action, context order.
func PotentialTags(transcript string) []string {
	lower := strings.ToLower(transcript)
	seen := make(map[string]bool)
	var tags []string

	add := func(tag string) {
		if seen[tag] || len(tags) >= maxPotentialTags {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, kw := range techTagKeywords {
		if strings.Contains(lower, kw) {
			add(kw)
		}
	}
	for _, kw := range actionTagKeywords {
		if strings.Contains(lower, kw) {
			add(kw)
		}
	}
	for _, r := range contextTagRules {
		if strings.Contains(lower, r.match) {
			add(r.label)
		}
	}
	return tags
}

// NormalizeTags lowercases and trims tags, dropping empty entries and
// duplicates, and caps the result at MaxTags.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// PageTag returns the tag implied by the page context, or "".
func PageTag(pc *PageContext) string {
	if pc == nil {
		return ""
	}
	return firstLabel(pc.text(), pageTagRules)
}

func (pc *PageContext) text() string {
	return strings.ToLower(pc.URL + " " + pc.Title)
}

func firstLabel(lower string, rules []labelRule) string {
	for _, r := range rules {
		if strings.Contains(lower, r.match) {
			return r.label
		}
	}
	return ""
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
