package extraction

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fixedNow is a Tuesday.
var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestValidator() *Validator {
	return NewValidator(WithClock(fixedClock))
}

func issuesFor(r Report, field string) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Field == field {
			out = append(out, i)
		}
	}
	return out
}

func hasAdjustment(r Report, reason string, delta float64) bool {
	for _, a := range r.Adjustments {
		if a.Reason == reason && a.Delta == delta {
			return true
		}
	}
	return false
}

func TestValidator_Title(t *testing.T) {
	v := newTestValidator()

	t.Run("missing title is an error and stops title checks", func(t *testing.T) {
		for _, title := range []string{"", "  ", "ab", " ab "} {
			report, _ := v.Validate(Task{Title: title}, "do it")
			assert.False(t, report.IsValid, "title %q", title)
			issues := issuesFor(report, "title")
			require.Len(t, issues, 1)
			assert.Equal(t, SeverityError, issues[0].Severity)
			assert.Equal(t, "Title is too short or missing", issues[0].Message)
			assert.Equal(t, "Extract the main action from the transcript", issues[0].Suggestion)
			assert.False(t, hasAdjustment(report, "No action verb in title", -0.1))
		}
	})

	t.Run("title without action verb", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Quarterly budget review"}, "")
		assert.True(t, report.IsValid)
		assert.Contains(t, report.Suggestions,
			"Consider starting the title with an action verb like 'Create', 'Review', or 'Call'")
		assert.True(t, hasAdjustment(report, "No action verb in title", -0.1))
	})

	t.Run("title with action verb", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Call the dentist"}, "")
		assert.False(t, hasAdjustment(report, "No action verb in title", -0.1))
	})

	t.Run("long title warns", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Review " + strings.Repeat("x", 100)}, "")
		issues := issuesFor(report, "title")
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
		assert.Equal(t, "Title is too long", issues[0].Message)
		assert.True(t, report.IsValid)
	})

	t.Run("vague title", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Review stuff"}, "")
		assert.Contains(t, report.Suggestions, "Make the title more specific by replacing vague terms")
		assert.True(t, hasAdjustment(report, "Vague language in title", -0.2))
	})

	t.Run("vague terms match inside words", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Submit report"}, "")
		assert.True(t, hasAdjustment(report, "Vague language in title", -0.2))
	})
}

func TestValidator_Description(t *testing.T) {
	v := newTestValidator()

	report, _ := v.Validate(Task{Title: "Write notes", Description: strings.Repeat("a", 1001)}, "")
	issues := issuesFor(report, "description")
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)

	long := "please write down the notes from the design session and share them with everyone"
	report, _ = v.Validate(Task{Title: "Write notes"}, long)
	assert.Contains(t, report.Suggestions,
		"Consider adding a description with the additional details from your voice input")

	report, _ = v.Validate(Task{Title: "Write notes"}, "write the notes")
	assert.NotContains(t, report.Suggestions,
		"Consider adding a description with the additional details from your voice input")
}

func TestValidator_Priority(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name       string
		priority   Priority
		transcript string
		want       string
	}{
		{"urgent language with low priority", PriorityLow, "this is URGENT", "Consider increasing priority - your language suggests this is urgent"},
		{"asap with medium priority", PriorityMedium, "send it asap", "Consider increasing priority - your language suggests this is urgent"},
		{"calm language with urgent priority", PriorityUrgent, "whenever you get to it", "Consider lowering priority - no urgency indicators detected"},
		{"unknown priority scores as medium", Priority("whatever"), "deadline is near", "Consider increasing priority - your language suggests this is urgent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, _ := v.Validate(Task{Title: "Send the invoice", Priority: tt.priority}, tt.transcript)
			assert.Contains(t, report.Suggestions, tt.want)
			assert.True(t, hasAdjustment(report, "Priority mismatch", -0.1))
		})
	}

	t.Run("matching priority", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Send the invoice", Priority: PriorityHigh}, "this is important")
		assert.False(t, hasAdjustment(report, "Priority mismatch", -0.1))
	})
}

func TestValidator_Category(t *testing.T) {
	v := newTestValidator()

	report, _ := v.Validate(Task{Title: "Pay the bill", Category: CategoryWork}, "pay the electricity bill at the bank")
	assert.Contains(t, report.Suggestions, "Consider changing category to 'finance' based on the content")

	report, _ = v.Validate(Task{Title: "Pay the bill", Category: CategoryFinance}, "pay the electricity bill at the bank")
	for _, s := range report.Suggestions {
		assert.NotContains(t, s, "Consider changing category")
	}

	report, _ = v.Validate(Task{Title: "Pay the bill", Category: CategoryFinance}, "zzz")
	for _, s := range report.Suggestions {
		assert.NotContains(t, s, "Consider changing category")
	}
}

func TestBestCategory(t *testing.T) {
	cat, n := BestCategory("prepare the client presentation for the project meeting")
	assert.Equal(t, CategoryWork, cat)
	assert.Equal(t, 4, n)

	// finance and social tie on one hit each; the earlier table entry wins.
	cat, n = BestCategory("call the bank")
	assert.Equal(t, CategoryFinance, cat)
	assert.Equal(t, 1, n)

	cat, n = BestCategory("")
	assert.Equal(t, Category(""), cat)
	assert.Zero(t, n)
}

func TestValidator_Temporal(t *testing.T) {
	v := newTestValidator()

	t.Run("time mentioned without due date", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Call mom"}, "call mom on Friday")
		assert.Contains(t, report.Suggestions, "You mentioned timing in your request - consider setting a due date")
		assert.True(t, hasAdjustment(report, "Time mentioned but no due date", -0.1))
	})

	t.Run("invalid due date", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Call mom", DueDate: "next tuesday"}, "")
		issues := issuesFor(report, "due_date")
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityError, issues[0].Severity)
		assert.Equal(t, "Invalid date format", issues[0].Message)
		assert.Equal(t, "Use ISO format (YYYY-MM-DD)", issues[0].Suggestion)
		assert.False(t, report.IsValid)
	})

	t.Run("past due date warns", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Call mom", DueDate: "2025-06-09"}, "")
		issues := issuesFor(report, "due_date")
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
		assert.Equal(t, "Due date is in the past", issues[0].Message)
		assert.True(t, report.IsValid)
	})

	t.Run("today and ISO datetimes are accepted", func(t *testing.T) {
		for _, d := range []string{"2025-06-10", "2025-06-12T09:00:00Z", "2025-06-12T09:00:00"} {
			report, _ := v.Validate(Task{Title: "Call mom", DueDate: d}, "")
			assert.Empty(t, issuesFor(report, "due_date"), d)
		}
	})

	t.Run("due time format", func(t *testing.T) {
		tests := []struct {
			time    string
			wantErr bool
		}{
			{"13:45", false},
			{"00:00", false},
			{"9:30", false},
			{"23:59", false},
			{"25:00", true},
			{"24:00", true},
			{"12:60", true},
			{"noon", true},
		}
		for _, tt := range tests {
			report, _ := v.Validate(Task{Title: "Call mom", DueDate: "2025-06-11", DueTime: tt.time}, "")
			issues := issuesFor(report, "due_time")
			if tt.wantErr {
				require.Len(t, issues, 1, tt.time)
				assert.Equal(t, SeverityError, issues[0].Severity)
				assert.Equal(t, "Invalid time format", issues[0].Message)
				assert.Equal(t, "Use HH:MM format (24-hour)", issues[0].Suggestion)
			} else {
				assert.Empty(t, issues, tt.time)
			}
		}
	})

	t.Run("due datetime earlier today warns", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Call mom", DueDate: "2025-06-10", DueTime: "09:00"}, "")
		assert.Empty(t, issuesFor(report, "due_date"))
		issues := issuesFor(report, "due_datetime")
		require.Len(t, issues, 1)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
		assert.Equal(t, "Due date and time is in the past", issues[0].Message)
	})

	t.Run("due datetime later today is fine", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Call mom", DueDate: "2025-06-10", DueTime: "18:30"}, "")
		assert.Empty(t, issuesFor(report, "due_datetime"))
	})

	// Known edge case: when either half of the combined date and time fails
	// to parse, the combined past-check is skipped silently. Only the
	// per-field issues are reported.
	t.Run("combined check swallows parse errors", func(t *testing.T) {
		report, _ := v.Validate(Task{Title: "Call mom", DueDate: "not-a-date", DueTime: "09:00"}, "")
		assert.Len(t, issuesFor(report, "due_date"), 1)
		assert.Empty(t, issuesFor(report, "due_datetime"))

		report, _ = v.Validate(Task{Title: "Call mom", DueDate: "2020-01-01", DueTime: "25:00"}, "")
		assert.Len(t, issuesFor(report, "due_date"), 1)
		assert.Len(t, issuesFor(report, "due_time"), 1)
		assert.Empty(t, issuesFor(report, "due_datetime"))
	})
}

func TestValidator_Duration(t *testing.T) {
	v := newTestValidator()

	report, _ := v.Validate(Task{Title: "Fix the sink", EstimatedDuration: Int(0)}, "")
	issues := issuesFor(report, "estimated_duration")
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, "Duration must be at least 1 minute", issues[0].Message)
	assert.False(t, report.IsValid)

	report, _ = v.Validate(Task{Title: "Fix the sink", EstimatedDuration: Int(600)}, "")
	issues = issuesFor(report, "estimated_duration")
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "Consider breaking this into smaller tasks", issues[0].Suggestion)

	report, _ = v.Validate(Task{Title: "Fix the sink", EstimatedDuration: Int(480)}, "")
	assert.Empty(t, issuesFor(report, "estimated_duration"))

	report, _ = v.Validate(Task{Title: "Fix the sink"}, "a quick fix for the sink")
	assert.Contains(t, report.Suggestions, "Consider adding an estimated duration to help with scheduling")
}

func TestValidator_Tags(t *testing.T) {
	v := newTestValidator()

	many := make([]string, 11)
	for i := range many {
		many[i] = string(rune('a' + i))
	}
	report, _ := v.Validate(Task{Title: "Plan sprint", Tags: many}, "")
	issues := issuesFor(report, "tags")
	require.Len(t, issues, 1)
	assert.Equal(t, "Too many tags", issues[0].Message)
	assert.Equal(t, SeverityWarning, issues[0].Severity)

	report, _ = v.Validate(Task{Title: "Plan sprint", Tags: []string{"ok", "  "}}, "")
	assert.Contains(t, report.Suggestions, "Remove empty or invalid tags")

	report, _ = v.Validate(Task{Title: "Plan sprint", Tags: []string{"API"}},
		"review the api and database changes before the meeting, then email the team")
	assert.Contains(t, report.Suggestions, "Consider adding tags: database, review, meeting")
}

func TestValidator_Consistency(t *testing.T) {
	v := newTestValidator()

	report, _ := v.Validate(Task{Title: "Ship the release", Priority: PriorityHigh}, "")
	assert.Contains(t, report.Suggestions, "High priority tasks should typically have deadlines")

	report, _ = v.Validate(Task{Title: "Ship the release", Priority: PriorityHigh, DueDate: "2025-06-12"}, "")
	assert.NotContains(t, report.Suggestions, "High priority tasks should typically have deadlines")

	// An empty category is treated as work.
	report, _ = v.Validate(Task{Title: "Plan dinner"}, "plan dinner with the family")
	assert.Contains(t, report.Suggestions, "Double-check if this should be categorized as 'personal'")

	report, _ = v.Validate(Task{Title: "Plan dinner", Category: CategorySocial}, "plan dinner with the family")
	assert.NotContains(t, report.Suggestions, "Double-check if this should be categorized as 'personal'")
}

func TestValidator_Confidence(t *testing.T) {
	v := newTestValidator()

	t.Run("completeness bonus on default confidence", func(t *testing.T) {
		task := Task{
			Title:             "Review the quarterly report",
			Description:       "Go over the numbers",
			Priority:          PriorityMedium,
			Category:          CategoryWork,
			DueDate:           "2025-06-11",
			EstimatedDuration: Int(30),
			Tags:              []string{"report"},
		}
		report, out := v.Validate(task, "Review the quarterly report for the client by tomorrow")
		assert.True(t, report.IsValid)
		assert.Empty(t, report.Adjustments)
		require.NotNil(t, out.ConfidenceScore)
		assert.InDelta(t, 0.8, *out.ConfidenceScore, 1e-9)
		assert.Nil(t, task.ConfidenceScore, "input task must not be mutated")
	})

	t.Run("clamped to one", func(t *testing.T) {
		task := Task{Title: "Review the report", ConfidenceScore: Float(0.95), Description: "d", DueDate: "2025-06-11"}
		_, out := v.Validate(task, "")
		assert.Equal(t, 1.0, *out.ConfidenceScore)
	})

	t.Run("clamped to zero", func(t *testing.T) {
		task := Task{Title: "Do stuff", ConfidenceScore: Float(0.05)}
		report, out := v.Validate(task, "")
		assert.Len(t, report.Adjustments, 2)
		assert.Equal(t, 0.0, *out.ConfidenceScore)
	})

	t.Run("adjustments are logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		v := NewValidator(WithClock(fixedClock), WithLogger(zap.New(core)))
		v.Validate(Task{Title: "Do stuff"}, "")
		entries := logs.FilterMessage("confidence adjustment").All()
		require.Len(t, entries, 2)
		assert.Equal(t, "No action verb in title", entries[0].ContextMap()["reason"])
	})
}

func TestValidator_ConfidenceAlwaysInRange(t *testing.T) {
	v := newTestValidator()
	scores := []float64{-5, 0, 0.3, 0.5, 0.99, 1, 7}
	transcripts := []string{"", "urgent asap", "do something today with stuff"}
	for _, s := range scores {
		for _, tr := range transcripts {
			_, out := v.Validate(Task{Title: "stuff", ConfidenceScore: Float(s), Priority: PriorityLow}, tr)
			assert.GreaterOrEqual(t, *out.ConfidenceScore, 0.0)
			assert.LessOrEqual(t, *out.ConfidenceScore, 1.0)
		}
	}
}

func TestCompletenessBonus(t *testing.T) {
	assert.Zero(t, CompletenessBonus(Task{}))
	assert.InDelta(t, 0.3, CompletenessBonus(Task{
		Title:             "a",
		Description:       "b",
		DueDate:           "2025-01-01",
		EstimatedDuration: Int(5),
		Tags:              []string{"x"},
	}), 1e-9)
	assert.InDelta(t, 0.1, CompletenessBonus(Task{Title: "a", EstimatedDuration: Int(0)}), 1e-9)
}

func TestEnhanceThenValidate_EndToEnd(t *testing.T) {
	e := NewEnhancer(WithClock(fixedClock))
	v := newTestValidator()

	transcript := "URGENT: call the bank tomorrow about the loan, should take 15 min"
	task := e.Enhance(Task{Title: "", Priority: PriorityLow}, transcript, nil)

	require.NotNil(t, task.EstimatedDuration)
	assert.Equal(t, 15, *task.EstimatedDuration)
	assert.Empty(t, task.DueDate)

	report, out := v.Validate(task, transcript)
	assert.False(t, report.IsValid)
	titleIssues := issuesFor(report, "title")
	require.Len(t, titleIssues, 1)
	assert.Equal(t, SeverityError, titleIssues[0].Severity)
	assert.Contains(t, report.Suggestions, "Consider increasing priority - your language suggests this is urgent")
	assert.True(t, hasAdjustment(report, "Priority mismatch", -0.1))
	assert.Contains(t, report.Suggestions, "Consider changing category to 'finance' based on the content")
	assert.GreaterOrEqual(t, *out.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, *out.ConfidenceScore, 1.0)
}
