package assistant

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/jipange/internal/conversation"
)

const maxSuggestions = 3

// Action is a UI affordance offered alongside a reply.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

type topic struct {
	keywords    []string
	suggestions []string
	actions     []Action
}

var topics = []topic{
	{
		keywords: []string{"task", "todo", "work", "project"},
		suggestions: []string{
			"Would you like me to help prioritize your tasks?",
			"I can suggest optimal time blocks for your work",
			"Want to set up reminders for important deadlines?",
		},
		actions: []Action{
			{"create_task", "Create New Task"},
			{"view_tasks", "View All Tasks"},
			{"prioritize", "Prioritize Tasks"},
		},
	},
	{
		keywords: []string{"schedule", "calendar", "meeting", "time"},
		suggestions: []string{
			"I can analyze your calendar for optimization opportunities",
			"Would you like me to suggest focus time blocks?",
			"I can help you prepare for upcoming meetings",
		},
		actions: []Action{
			{"view_calendar", "View Calendar"},
			{"schedule_focus", "Schedule Focus Time"},
			{"optimize_schedule", "Optimize Schedule"},
		},
	},
	{
		keywords: []string{"productivity", "efficient", "better", "improve"},
		suggestions: []string{
			"I can analyze your work patterns for insights",
			"Would you like personalized productivity recommendations?",
			"I can suggest workflow improvements",
		},
		actions: []Action{
			{"productivity_report", "View Productivity Report"},
			{"workflow_tips", "Get Workflow Tips"},
			{"set_goals", "Set Productivity Goals"},
		},
	},
	{
		keywords: []string{"tomorrow", "next", "plan", "prepare"},
		suggestions: []string{
			"I can create an optimized schedule for tomorrow",
			"Would you like me to review your upcoming deadlines?",
			"I can suggest preparation tasks for tomorrow's meetings",
		},
		actions: []Action{
			{"plan_tomorrow", "Plan Tomorrow"},
			{"review_deadlines", "Review Deadlines"},
			{"prep_meetings", "Prepare for Meetings"},
		},
	},
}

// SuggestionsFor returns up to three follow-up suggestions and actions
// for a user message. Topics contribute in table order.
func SuggestionsFor(message string) ([]string, []Action) {
	lower := strings.ToLower(message)
	suggestions := []string{}
	actions := []Action{}
	for _, t := range topics {
		if !containsAny(lower, t.keywords) {
			continue
		}
		suggestions = append(suggestions, t.suggestions...)
		actions = append(actions, t.actions...)
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	if len(actions) > maxSuggestions {
		actions = actions[:maxSuggestions]
	}
	return suggestions, actions
}

// FallbackReply picks the offline reply for a user message.
func FallbackReply(message string) string {
	lower := strings.ToLower(message)
	for _, r := range fallbackRules {
		if containsAny(lower, r.keywords) {
			return r.reply
		}
	}
	return replyGeneral
}

// contextUpdates derives the user context documents implied by a message.
func contextUpdates(message string, now time.Time) map[string]map[string]any {
	lower := strings.ToLower(message)
	stamp := now.Format(time.RFC3339)
	updates := make(map[string]map[string]any, 3)

	for _, pref := range []string{"morning", "afternoon", "evening"} {
		if strings.Contains(lower, pref) {
			updates[conversation.ContextTimePreferences] = map[string]any{
				"preferred_work_time": pref,
				"last_updated":        stamp,
			}
			break
		}
	}

	if containsAny(lower, []string{"urgent", "important", "priority"}) {
		updates[conversation.ContextTaskPreferences] = map[string]any{
			"priority_focused": true,
			"last_updated":     stamp,
		}
	}

	style := "moderate"
	switch words := len(strings.Fields(message)); {
	case words > 20:
		style = "detailed"
	case words < 5:
		style = "brief"
	}
	updates[conversation.ContextCommunicationStyle] = map[string]any{
		"preferred_style": style,
		"last_updated":    stamp,
	}
	return updates
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
