package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPotentialTags(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       []string
	}{
		{"none", "buy milk", nil},
		{"technology first", "the mobile app needs a new api", []string{"api", "mobile", "app"}},
		{"context labels", "send the presentation by email", []string{"communication", "presentation"}},
		{"capped at five", "api database frontend backend mobile web app review", []string{"api", "database", "frontend", "backend", "mobile"}},
		{"follow-up", "Follow-up with the vendor", []string{"follow-up"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PotentialTags(tt.transcript))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Equal(t, []string{"work", "urgent"}, NormalizeTags([]string{" Work ", "", "URGENT", "work", "  "}))

	many := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	assert.Len(t, NormalizeTags(many), MaxTags)
}

func TestPageTag(t *testing.T) {
	assert.Equal(t, "", PageTag(nil))
	assert.Equal(t, "development", PageTag(&PageContext{URL: "https://github.com/a/b"}))
	assert.Equal(t, "documentation", PageTag(&PageContext{URL: "https://docs.google.com/document/d/1"}))
	assert.Equal(t, "scheduling", PageTag(&PageContext{URL: "https://calendar.google.com/"}))
	assert.Equal(t, "communication", PageTag(&PageContext{Title: "general | Acme - Slack.com"}))
	assert.Equal(t, "", PageTag(&PageContext{URL: "https://example.com"}))
}

func TestParseDueDate(t *testing.T) {
	for _, s := range []string{"2025-06-10", "2025-06-10T23:00:00Z", "2025-06-10T08:15", " 2025-06-10 "} {
		d, err := ParseDueDate(s, fixedNow.Location())
		if assert.NoError(t, err, s) {
			assert.Equal(t, 10, d.Day())
			assert.Zero(t, d.Hour())
		}
	}
	for _, s := range []string{"", "tomorrow", "2025-13-01", "10/06/2025"} {
		_, err := ParseDueDate(s, fixedNow.Location())
		assert.Error(t, err, s)
	}
}
