package secrets

// DefaultRules returns the detection rules applied to prompts.
func DefaultRules() []Rule {
	return []Rule{
		// LLM and speech providers
		{
			ID:          "openai-api-key",
			Description: "OpenAI API Key",
			Pattern:     `sk-(?:proj-)?[A-Za-z0-9_\-]{20,}`,
			Severity:    "high",
		},
		{
			ID:          "groq-api-key",
			Description: "Groq API Key",
			Pattern:     `gsk_[A-Za-z0-9]{20,}`,
			Severity:    "high",
		},
		{
			ID:          "anthropic-api-key",
			Description: "Anthropic API Key",
			Pattern:     `sk-ant-[A-Za-z0-9_\-]{20,}`,
			Severity:    "high",
		},

		// Integrations the assistant talks to
		{
			ID:          "slack-token",
			Description: "Slack Token",
			Pattern:     `xox[baprs]-[A-Za-z0-9\-]{10,}`,
			Severity:    "high",
		},
		{
			ID:          "google-api-key",
			Description: "Google API Key",
			Pattern:     `AIza[0-9A-Za-z_\-]{35}`,
			Severity:    "high",
		},
		{
			ID:          "google-oauth-token",
			Description: "Google OAuth Access Token",
			Pattern:     `ya29\.[0-9A-Za-z_\-]{20,}`,
			Severity:    "high",
		},
		{
			ID:          "github-token",
			Description: "GitHub Token",
			Pattern:     `(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}`,
			Severity:    "high",
		},

		// Generic credentials
		{
			ID:          "bearer-token",
			Description: "Bearer Token",
			Pattern:     `(?i)bearer\s+[A-Za-z0-9_\-\.=]{20,}`,
			Keywords:    []string{"bearer"},
			Severity:    "medium",
		},
		{
			ID:          "jwt",
			Description: "JSON Web Token",
			Pattern:     `eyJ[A-Za-z0-9_\-]{10,}\.eyJ[A-Za-z0-9_\-]{10,}\.[A-Za-z0-9_\-]{10,}`,
			Severity:    "medium",
		},
		{
			ID:          "generic-api-key",
			Description: "Generic API Key",
			Pattern:     `(?i)(?:api[_\- ]?key|apikey)\s*(?:[:=]|is)\s*['"]?[A-Za-z0-9_\-]{16,64}['"]?`,
			Keywords:    []string{"api", "key"},
			Severity:    "high",
		},
		{
			ID:          "password",
			Description: "Password",
			Pattern:     `(?i)(?:password|passwd|pwd|passcode)\s*(?:[:=]|is)\s*['"]?[^\s'"]{4,}['"]?`,
			Keywords:    []string{"pass", "pwd"},
			Severity:    "high",
		},
		{
			ID:          "private-key",
			Description: "Private Key",
			Pattern:     `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?:[- ]BLOCK)?-----`,
			Severity:    "high",
		},

		// Payment data
		{
			ID:          "card-number",
			Description: "Payment Card Number",
			Pattern:     `\b(?:\d[ \-]?){12,18}\d\b`,
			Severity:    "high",
			Checksum:    "luhn",
		},
	}
}
