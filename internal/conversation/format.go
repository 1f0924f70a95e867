package conversation

import "strings"

// FormatHistory renders the last n messages as "User: ..." / "Jia: ..."
// lines for inclusion in a prompt.
func FormatHistory(history []Message, n int) string {
	if len(history) == 0 {
		return "No previous conversation"
	}
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}

	lines := make([]string, 0, len(history))
	for _, m := range history {
		speaker := "Jia"
		if m.Role == RoleUser {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
