package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("llm: no JSON object in reply")

// DecodeJSON unmarshals the JSON object contained in an LLM reply into v.
// Models sometimes wrap the object in markdown fences or prose, so the
// outermost {...} span is used.
func DecodeJSON(reply string, v any) error {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return ErrNoJSON
	}
	return json.Unmarshal([]byte(reply[start:end+1]), v)
}
