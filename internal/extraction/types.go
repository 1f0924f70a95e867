package extraction

// Priority is the urgency level assigned to a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Score returns the numeric weight of the priority. Unknown or empty
// priorities score as medium.
func (p Priority) Score() float64 {
	if s, ok := priorityScores[p]; ok {
		return s
	}
	return priorityScores[PriorityMedium]
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityScores[p]
	return ok
}

// Category is the life area a task belongs to.
type Category string

const (
	CategoryWork      Category = "work"
	CategoryPersonal  Category = "personal"
	CategoryHealth    Category = "health"
	CategoryLearning  Category = "learning"
	CategoryFinance   Category = "finance"
	CategorySocial    Category = "social"
	CategoryHousehold Category = "household"
	CategoryCreative  Category = "creative"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, ck := range categoryKeywords {
		if ck.category == c {
			return true
		}
	}
	return false
}

// Recurrence is a repeat schedule for a task.
type Recurrence string

const (
	RecurrenceDaily    Recurrence = "daily"
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceMonthly  Recurrence = "monthly"
	RecurrenceWeekdays Recurrence = "weekdays"
	RecurrenceWeekends Recurrence = "weekends"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Task is a task candidate extracted from user input.
//
// Optional numeric fields are pointers so that "absent" is distinguishable
// from zero. Dates use YYYY-MM-DD and times use HH:MM.
type Task struct {
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Priority          Priority   `json:"priority,omitempty"`
	Category          Category   `json:"category,omitempty"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"`
	DueDate           string     `json:"due_date,omitempty"`
	DueTime           string     `json:"due_time,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	Location          string     `json:"location,omitempty"`
	ReminderMinutes   *int       `json:"reminder_minutes,omitempty"`
	Recurring         Recurrence `json:"recurring,omitempty"`
	ConfidenceScore   *float64   `json:"confidence_score,omitempty"`
}

// Confidence returns the confidence score, or 0.5 when none is set.
func (t Task) Confidence() float64 {
	if t.ConfidenceScore == nil {
		return defaultConfidence
	}
	return *t.ConfidenceScore
}

// Clone returns a copy of t that shares no mutable state with it.
func (t Task) Clone() Task {
	c := t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.EstimatedDuration != nil {
		c.EstimatedDuration = Int(*t.EstimatedDuration)
	}
	if t.ReminderMinutes != nil {
		c.ReminderMinutes = Int(*t.ReminderMinutes)
	}
	if t.ConfidenceScore != nil {
		c.ConfidenceScore = Float(*t.ConfidenceScore)
	}
	return c
}

// PageContext describes the page the user was on when the input was captured.
type PageContext struct {
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// Issue is a single validation finding.
type Issue struct {
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Adjustment is a signed change applied to the confidence score.
type Adjustment struct {
	Reason string  `json:"reason"`
	Delta  float64 `json:"delta"`
}

// Report is the outcome of validating a task candidate.
type Report struct {
	IsValid     bool         `json:"is_valid"`
	Issues      []Issue      `json:"issues"`
	Suggestions []string     `json:"suggestions"`
	Adjustments []Adjustment `json:"confidence_adjustments"`
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
