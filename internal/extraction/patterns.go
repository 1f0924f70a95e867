package extraction

import (
	"regexp"
	"strconv"
)

// Tables are ordered slices rather than maps wherever the first match or
// the iteration order decides the outcome.

const defaultConfidence = 0.5

// actionVerbs are the verbs a well-formed title is expected to start with.
var actionVerbs = map[string]struct{}{
	"create": {}, "make": {}, "build": {}, "develop": {}, "design": {}, "write": {}, "draft": {},
	"review": {}, "check": {}, "verify": {}, "validate": {}, "test": {}, "analyze": {},
	"call": {}, "contact": {}, "reach out": {}, "email": {}, "message": {}, "notify": {},
	"schedule": {}, "plan": {}, "organize": {}, "arrange": {}, "book": {}, "reserve": {},
	"finish": {}, "complete": {}, "finalize": {}, "submit": {}, "deliver": {}, "send": {},
	"research": {}, "study": {}, "learn": {}, "investigate": {}, "explore": {},
	"fix": {}, "repair": {}, "solve": {}, "resolve": {}, "troubleshoot": {},
	"update": {}, "modify": {}, "change": {}, "edit": {}, "revise": {}, "improve": {},
}

type weightedKeyword struct {
	keyword string
	weight  float64
}

// urgencyIndicators weight the urgency implied by a keyword in the transcript.
var urgencyIndicators = []weightedKeyword{
	{"urgent", 0.9},
	{"asap", 0.9},
	{"immediately", 0.9},
	{"critical", 0.8},
	{"important", 0.7},
	{"priority", 0.7},
	{"soon", 0.6},
	{"deadline", 0.8},
	{"due", 0.6},
}

// timeIndicators signal that the user mentioned when the task should happen.
var timeIndicators = []string{
	"today", "tomorrow", "this week", "next week",
	"monday", "tuesday", "wednesday", "thursday", "friday",
	"weekend",
}

var priorityScores = map[Priority]float64{
	PriorityLow:    0.2,
	PriorityMedium: 0.5,
	PriorityHigh:   0.7,
	PriorityUrgent: 0.9,
}

type categoryKeywordSet struct {
	category Category
	keywords []string
}

// categoryKeywords is evaluated in order; ties keep the earlier category.
var categoryKeywords = []categoryKeywordSet{
	{CategoryWork, []string{"meeting", "project", "client", "presentation", "report", "email", "colleague", "boss", "office"}},
	{CategoryPersonal, []string{"family", "friend", "personal", "home", "myself", "self"}},
	{CategoryHealth, []string{"doctor", "exercise", "gym", "medication", "appointment", "health", "workout"}},
	{CategoryLearning, []string{"study", "learn", "course", "read", "research", "tutorial", "book", "education"}},
	{CategoryFinance, []string{"budget", "pay", "bill", "bank", "money", "investment", "financial"}},
	{CategorySocial, []string{"party", "dinner", "call", "visit", "social", "event", "friends"}},
	{CategoryHousehold, []string{"clean", "repair", "maintenance", "grocery", "shopping", "house", "home"}},
	{CategoryCreative, []string{"write", "design", "create", "art", "music", "photo", "creative"}},
}

var vagueWords = []string{"something", "stuff", "things", "it", "that"}

var durationIndicators = []string{"quick", "brief", "long", "detailed", "thorough"}

var personalIndicators = []string{"personal", "family", "home"}

// Potential tag tables, evaluated technology, action, then context.
var (
	techTagKeywords   = []string{"api", "database", "frontend", "backend", "mobile", "web", "app"}
	actionTagKeywords = []string{"urgent", "follow-up", "research", "planning", "review"}
	contextTagRules   = []labelRule{
		{"meeting", "meeting"},
		{"email", "communication"},
		{"presentation", "presentation"},
	}
)

const maxPotentialTags = 5

// labelRule maps a lowercase substring to a label.
type labelRule struct {
	match string
	label string
}

// locationKeywords are checked in order against the transcript.
var locationKeywords = []labelRule{
	{"office", "Office"},
	{"home", "Home"},
	{"gym", "Gym"},
	{"store", "Store"},
	{"bank", "Bank"},
	{"doctor", "Doctor's Office"},
	{"restaurant", "Restaurant"},
	{"online", "Online"},
	{"zoom", "Video Call"},
	{"phone", "Phone Call"},
}

// pageLocationRules infer a location from the page the user was on.
var pageLocationRules = []labelRule{
	{"calendar.google.com", "Calendar Event"},
	{"zoom.us", "Video Call"},
	{"github.com", "Development Work"},
}

type recurrenceKeywordSet struct {
	recurrence Recurrence
	keywords   []string
}

var recurrenceKeywords = []recurrenceKeywordSet{
	{RecurrenceDaily, []string{"daily", "every day", "each day"}},
	{RecurrenceWeekly, []string{"weekly", "every week", "each week"}},
	{RecurrenceMonthly, []string{"monthly", "every month", "each month"}},
	{RecurrenceWeekdays, []string{"weekdays", "monday to friday", "work days"}},
	{RecurrenceWeekends, []string{"weekends", "saturday and sunday"}},
}

// durationPattern converts a regex match into minutes.
type durationPattern struct {
	re      *regexp.Regexp
	minutes func(groups []string) (int, bool)
}

func fixedMinutes(n int) func([]string) (int, bool) {
	return func([]string) (int, bool) { return n, true }
}

func scaledMinutes(factor int) func([]string) (int, bool) {
	return func(groups []string) (int, bool) {
		n, err := strconv.Atoi(groups[1])
		if err != nil {
			return 0, false
		}
		return n * factor, true
	}
}

// durationPatterns are tried in order; the first pattern that matches wins.
var durationPatterns = []durationPattern{
	{regexp.MustCompile(`(?i)\b(\d+)\s*min`), scaledMinutes(1)},
	{regexp.MustCompile(`(?i)\b(\d+)\s*hour`), scaledMinutes(60)},
	{regexp.MustCompile(`(?i)\bhalf\s*hour`), fixedMinutes(30)},
	{regexp.MustCompile(`(?i)\bquarter\s*hour`), fixedMinutes(15)},
	{regexp.MustCompile(`(?i)\ball\s*day`), fixedMinutes(480)},
}

// dueTimePattern accepts 24-hour times with an optional leading zero.
var dueTimePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)
