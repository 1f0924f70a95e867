package extraction

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	minTitleLength       = 3
	maxTitleLength       = 100
	maxDescriptionLength = 1000
	maxDurationMinutes   = 480
	descriptionWordHint  = 10
	suggestedTagCount    = 3
)

// Validator checks task candidates against the transcript they came from.
// It is safe for concurrent use.
type Validator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	o := buildOptions(opts)
	return &Validator{logger: o.logger, now: o.now}
}

// validation is the state of a single Validate call.
type validation struct {
	task       *Task
	transcript string
	lower      string
	now        time.Time
	report     *Report
}

type check func(*validation)

// checks run in this order. Confidence aggregation is not a check; it runs
// after all of them.
var checks = []check{
	checkTitle,
	checkDescription,
	checkPriority,
	checkCategory,
	checkTemporal,
	checkDuration,
	checkTags,
	checkConsistency,
}

// Validate assesses task against transcript. It returns the report and a
// copy of task whose ConfidenceScore holds the adjusted confidence.
//
// Validate never returns an error: malformed fields become issues with
// SeverityError and the report is marked invalid.
func (v *Validator) Validate(task Task, transcript string) (Report, Task) {
	out := task.Clone()
	report := Report{
		IsValid:     true,
		Issues:      []Issue{},
		Suggestions: []string{},
		Adjustments: []Adjustment{},
	}

	state := &validation{
		task:       &out,
		transcript: transcript,
		lower:      strings.ToLower(transcript),
		now:        v.now(),
		report:     &report,
	}
	for _, c := range checks {
		c(state)
	}

	out.ConfidenceScore = Float(v.finalConfidence(out, report.Adjustments))
	return report, out
}

func (s *validation) issue(field, message string, severity Severity, suggestion string) {
	s.report.Issues = append(s.report.Issues, Issue{
		Field:      field,
		Message:    message,
		Severity:   severity,
		Suggestion: suggestion,
	})
	if severity == SeverityError {
		s.report.IsValid = false
	}
}

func (s *validation) suggest(text string) {
	s.report.Suggestions = append(s.report.Suggestions, text)
}

func (s *validation) adjust(reason string, delta float64) {
	s.report.Adjustments = append(s.report.Adjustments, Adjustment{Reason: reason, Delta: delta})
}

func checkTitle(s *validation) {
	title := s.task.Title
	if utf8.RuneCountInString(strings.TrimSpace(title)) < minTitleLength {
		s.issue("title", "Title is too short or missing", SeverityError,
			"Extract the main action from the transcript")
		return
	}

	lower := strings.ToLower(title)
	if words := strings.Fields(lower); len(words) > 0 {
		if _, ok := actionVerbs[words[0]]; !ok {
			s.suggest("Consider starting the title with an action verb like 'Create', 'Review', or 'Call'")
			s.adjust("No action verb in title", -0.1)
		}
	}

	if utf8.RuneCountInString(title) > maxTitleLength {
		s.issue("title", "Title is too long", SeverityWarning,
			"Keep titles under 100 characters for better readability")
	}

	// Substring match: "it" also hits words such as "edit".
	if containsAny(lower, vagueWords) {
		s.suggest("Make the title more specific by replacing vague terms")
		s.adjust("Vague language in title", -0.2)
	}
}

func checkDescription(s *validation) {
	desc := s.task.Description
	if utf8.RuneCountInString(desc) > maxDescriptionLength {
		s.issue("description", "Description is too long", SeverityWarning,
			"Keep descriptions under 1000 characters")
	}
	if desc == "" && len(strings.Fields(s.transcript)) > descriptionWordHint {
		s.suggest("Consider adding a description with the additional details from your voice input")
	}
}

// detectedUrgency is the highest urgency weight found in the transcript.
func detectedUrgency(lower string) float64 {
	var urgency float64
	for _, ind := range urgencyIndicators {
		if strings.Contains(lower, ind.keyword) && ind.weight > urgency {
			urgency = ind.weight
		}
	}
	return urgency
}

func checkPriority(s *validation) {
	urgency := detectedUrgency(s.lower)
	assigned := s.task.Priority.Score()

	if urgency > 0.7 && assigned < 0.6 {
		s.suggest("Consider increasing priority - your language suggests this is urgent")
		s.adjust("Priority mismatch", -0.1)
	}
	if urgency < 0.3 && assigned > 0.7 {
		s.suggest("Consider lowering priority - no urgency indicators detected")
		s.adjust("Priority mismatch", -0.1)
	}
}

// BestCategory returns the category with the most keyword hits in the
// transcript and its hit count. Ties keep the earlier category.
func BestCategory(transcript string) (Category, int) {
	lower := strings.ToLower(transcript)
	var (
		best      Category
		bestCount int
	)
	for _, set := range categoryKeywords {
		count := 0
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = set.category, count
		}
	}
	return best, bestCount
}

func checkCategory(s *validation) {
	best, count := BestCategory(s.transcript)
	if count > 0 && best != s.task.Category {
		s.suggest(fmt.Sprintf("Consider changing category to '%s' based on the content", best))
	}
}

func checkTemporal(s *validation) {
	task := s.task
	if containsAny(s.lower, timeIndicators) && task.DueDate == "" {
		s.suggest("You mentioned timing in your request - consider setting a due date")
		s.adjust("Time mentioned but no due date", -0.1)
	}

	loc := s.now.Location()
	today := startOfDay(s.now, loc)

	if task.DueDate != "" {
		due, err := ParseDueDate(task.DueDate, loc)
		switch {
		case err != nil:
			s.issue("due_date", "Invalid date format", SeverityError, "Use ISO format (YYYY-MM-DD)")
		case due.Before(today):
			s.issue("due_date", "Due date is in the past", SeverityWarning, "Check if this date is correct")
		}
	}

	if task.DueTime != "" && !dueTimePattern.MatchString(task.DueTime) {
		s.issue("due_time", "Invalid time format", SeverityError, "Use HH:MM format (24-hour)")
	}

	if task.DueDate == "" || task.DueTime == "" {
		return
	}
	// Either half failing to parse skips the combined check without an issue.
	due, err := ParseDueDate(task.DueDate, loc)
	if err != nil {
		return
	}
	hour, minute, ok := parseDueTime(task.DueTime)
	if !ok {
		return
	}
	at := due.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	if at.Before(s.now) {
		s.issue("due_datetime", "Due date and time is in the past", SeverityWarning,
			"Verify the intended date and time")
	}
}

func checkDuration(s *validation) {
	d := s.task.EstimatedDuration
	if d == nil {
		if containsAny(s.lower, durationIndicators) {
			s.suggest("Consider adding an estimated duration to help with scheduling")
		}
		return
	}
	switch {
	case *d < 1:
		s.issue("estimated_duration", "Duration must be at least 1 minute", SeverityError, "")
	case *d > maxDurationMinutes:
		s.issue("estimated_duration", "Duration seems very long (over 8 hours)", SeverityWarning,
			"Consider breaking this into smaller tasks")
	}
}

func checkTags(s *validation) {
	tags := s.task.Tags
	if len(tags) > MaxTags {
		s.issue("tags", "Too many tags", SeverityWarning, "Limit to 10 most relevant tags")
	}

	present := make(map[string]bool, len(tags))
	valid := 0
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		present[t] = true
		valid++
	}
	if valid != len(tags) {
		s.suggest("Remove empty or invalid tags")
	}

	var missing []string
	for _, t := range PotentialTags(s.transcript) {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > suggestedTagCount {
		missing = missing[:suggestedTagCount]
	}
	if len(missing) > 0 {
		s.suggest("Consider adding tags: " + strings.Join(missing, ", "))
	}
}

func checkConsistency(s *validation) {
	priority := s.task.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	category := s.task.Category
	if category == "" {
		category = CategoryWork
	}

	if (priority == PriorityUrgent || priority == PriorityHigh) && s.task.DueDate == "" {
		s.suggest("High priority tasks should typically have deadlines")
	}
	if category == CategoryWork && containsAny(s.lower, personalIndicators) {
		s.suggest("Double-check if this should be categorized as 'personal'")
	}
}

// finalConfidence applies the adjustments and the completeness bonus to the
// task's confidence and clamps the result to [0, 1].
func (v *Validator) finalConfidence(task Task, adjustments []Adjustment) float64 {
	confidence := task.Confidence()
	for _, a := range adjustments {
		confidence += a.Delta
		v.logger.Debug("confidence adjustment",
			zap.String("reason", a.Reason),
			zap.Float64("delta", a.Delta))
	}
	return clamp(confidence+CompletenessBonus(task), 0, 1)
}

// CompletenessBonus rewards populated fields: 0.1 for a title and 0.05 each
// for description, due date, estimated duration and tags.
func CompletenessBonus(task Task) float64 {
	var bonus float64
	if task.Title != "" {
		bonus += 0.1
	}
	if task.Description != "" {
		bonus += 0.05
	}
	if task.DueDate != "" {
		bonus += 0.05
	}
	if task.EstimatedDuration != nil && *task.EstimatedDuration != 0 {
		bonus += 0.05
	}
	if len(task.Tags) > 0 {
		bonus += 0.05
	}
	return bonus
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
