package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/jipange/internal/conversation"
	"github.com/fyrsmithlabs/jipange/internal/extraction"
)

const extractionSystemPrompt = `You are an expert task extraction AI. Convert natural language voice input into structured task data.

EXTRACTION RULES:
1. Create clear, actionable task titles starting with verbs
2. Determine priority: urgent (ASAP, critical), high (important, soon), medium (should, need), low (sometime, maybe)
3. Classify category: work, personal, health, learning, finance, social, household, creative
4. Parse time references: "today", "tomorrow", "next week", specific dates/times
5. Estimate duration: quick (15min), call (30min), meeting (60min), project (120min+)
6. Extract location if mentioned
7. Generate relevant tags
8. Assign confidence score (0.0-1.0)

OUTPUT FORMAT: Return ONLY valid JSON with these fields:
{
  "title": "string",
  "description": "string",
  "priority": "low|medium|high|urgent",
  "category": "work|personal|health|learning|finance|social|household|creative",
  "estimated_duration": number_in_minutes,
  "due_date": "YYYY-MM-DD",
  "due_time": "HH:MM",
  "tags": ["tag1", "tag2"],
  "location": "string",
  "confidence_score": 0.0-1.0,
  "suggestions": ["suggestion1", "suggestion2"],
  "warnings": ["warning1", "warning2"]
}`

func extractionUserPrompt(transcript string, now time.Time, uc conversation.UserContext, pc *extraction.PageContext) string {
	userCtx := "None"
	if len(uc) > 0 {
		if b, err := json.Marshal(uc); err == nil {
			userCtx = string(b)
		}
	}

	page := "None"
	if pc != nil {
		if s := strings.TrimSpace(pc.URL + " " + pc.Title); s != "" {
			page = s
		}
	}

	return fmt.Sprintf(`TRANSCRIPT: %q
CURRENT_TIME: %s
USER_CONTEXT: %s
PAGE_CONTEXT: %s

Extract task information and return as JSON.`, transcript, now.Format(time.RFC3339), userCtx, page)
}
