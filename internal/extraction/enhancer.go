package extraction

import (
	"strings"
	"time"
)

// Enhancer fills absent task fields from the transcript and page context.
// It is safe for concurrent use.
type Enhancer struct {
	now func() time.Time
}

// NewEnhancer creates an Enhancer.
func NewEnhancer(opts ...Option) *Enhancer {
	o := buildOptions(opts)
	return &Enhancer{now: o.now}
}

// Enhance returns a copy of task with duration, reminder, location and
// recurrence inferred where they are absent. Populated fields are never
// overwritten. Each inference reads only the input task, the transcript and
// pc, so the inferences are independent of one another.
func (e *Enhancer) Enhance(task Task, transcript string, pc *PageContext) Task {
	out := task.Clone()
	lower := strings.ToLower(transcript)

	if unset(task.EstimatedDuration) {
		if d, ok := InferDuration(transcript); ok {
			out.EstimatedDuration = Int(d)
		}
	}
	if unset(task.ReminderMinutes) {
		if r, ok := e.inferReminder(task); ok {
			out.ReminderMinutes = Int(r)
		}
	}
	if task.Location == "" {
		out.Location = inferLocation(lower, pc)
	}
	if task.Recurring == "" {
		out.Recurring = inferRecurrence(lower)
	}
	return out
}

func unset(p *int) bool {
	return p == nil || *p == 0
}

// InferDuration returns the duration in minutes stated in the transcript.
// The first pattern that matches decides; a zero result counts as no match.
func InferDuration(transcript string) (int, bool) {
	for _, p := range durationPatterns {
		groups := p.re.FindStringSubmatch(transcript)
		if groups == nil {
			continue
		}
		n, ok := p.minutes(groups)
		if !ok || n <= 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// inferReminder picks how many minutes before the due date to remind.
func (e *Enhancer) inferReminder(task Task) (int, bool) {
	if task.DueDate == "" {
		return 0, false
	}
	now := e.now()
	due, err := ParseDueDate(task.DueDate, now.Location())
	if err != nil {
		return 0, false
	}
	days := daysBetween(now, due)

	priority := task.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	switch {
	case priority == PriorityUrgent:
		if days > 0 {
			return 60, true
		}
		return 15, true
	case priority == PriorityHigh:
		if days > 1 {
			return 240, true
		}
		return 60, true
	case days > 7:
		return 1440, true
	case days > 1:
		return 240, true
	default:
		return 60, true
	}
}

func inferLocation(lower string, pc *PageContext) string {
	if loc := firstLabel(lower, locationKeywords); loc != "" {
		return loc
	}
	if pc == nil {
		return ""
	}
	return firstLabel(pc.text(), pageLocationRules)
}

func inferRecurrence(lower string) Recurrence {
	for _, set := range recurrenceKeywords {
		if containsAny(lower, set.keywords) {
			return set.recurrence
		}
	}
	return ""
}
