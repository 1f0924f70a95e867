package pipeline

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fyrsmithlabs/jipange/internal/extraction"
)

const (
	maxFallbackTitle   = 100
	fallbackConfidence = 0.3
)

// candidate is the task object returned by the model, plus its notes.
type candidate struct {
	extraction.Task
	Suggestions []string `json:"suggestions"`
	Warnings    []string `json:"warnings"`
}

// normalize fills the gaps a model reply commonly leaves: the title, a
// relative due date, page tags and the confidence score.
func normalize(c *candidate, transcript string, pc *extraction.PageContext, now time.Time) {
	if strings.TrimSpace(c.Title) == "" {
		c.Title = truncate(transcript, maxFallbackTitle)
	}
	if c.DueDate != "" {
		c.DueDate = NormalizeDate(c.DueDate, now)
	}

	tags := c.Tags
	if tag := extraction.PageTag(pc); tag != "" {
		tags = append(tags, tag)
	}
	c.Tags = extraction.NormalizeTags(tags)

	if c.ConfidenceScore == nil || *c.ConfidenceScore == 0 {
		c.ConfidenceScore = extraction.Float(CompletenessScore(c.Task))
	}
}

// NormalizeDate resolves "today", "tomorrow" and "next week" relative to
// now and reduces ISO datetimes to YYYY-MM-DD. Anything else is returned
// unchanged.
func NormalizeDate(s string, now time.Time) string {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "today"):
		return now.Format(time.DateOnly)
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1).Format(time.DateOnly)
	case strings.Contains(lower, "next week"):
		return now.AddDate(0, 0, 7).Format(time.DateOnly)
	}
	if t, err := extraction.ParseDueDate(s, now.Location()); err == nil {
		return t.Format(time.DateOnly)
	}
	return s
}

// CompletenessScore rates a task by how many fields the model filled.
func CompletenessScore(t extraction.Task) float64 {
	score := 0.5
	if utf8.RuneCountInString(t.Title) > 10 {
		score += 0.2
	}
	if t.Description != "" {
		score += 0.1
	}
	if t.DueDate != "" {
		score += 0.1
	}
	if t.EstimatedDuration != nil && *t.EstimatedDuration != 0 {
		score += 0.1
	}
	return min(1.0, score)
}

// fallbackCandidate is used when the model cannot be reached or its reply
// cannot be parsed.
func fallbackCandidate(transcript string) candidate {
	return candidate{
		Task: extraction.Task{
			Title:           truncate(transcript, maxFallbackTitle),
			Description:     "Task created from voice input (fallback mode)",
			Priority:        extraction.PriorityMedium,
			Category:        extraction.CategoryWork,
			ConfidenceScore: extraction.Float(fallbackConfidence),
		},
		Suggestions: []string{"Review and edit this task for better organization"},
		Warnings:    []string{"Task created in fallback mode - please verify details"},
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
