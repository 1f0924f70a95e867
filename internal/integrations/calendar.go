package integrations

import (
	"context"

	"google.golang.org/api/calendar/v3"
)

// CalendarSource lists a user's calendar events.
type CalendarSource interface {
	Events(ctx context.Context, userID string) ([]*calendar.Event, error)
}

// MockCalendar serves a fixed agenda until OAuth-backed sync exists.
type MockCalendar struct{}

func (MockCalendar) Events(context.Context, string) ([]*calendar.Event, error) {
	return []*calendar.Event{
		{
			Id:        "event_1",
			Summary:   "Team Standup",
			Start:     &calendar.EventDateTime{DateTime: "2024-01-15T09:00:00Z"},
			End:       &calendar.EventDateTime{DateTime: "2024-01-15T09:30:00Z"},
			Attendees: []*calendar.EventAttendee{{Email: "user@example.com"}},
			Location:  "Conference Room A",
		},
		{
			Id:      "event_2",
			Summary: "Client Meeting",
			Start:   &calendar.EventDateTime{DateTime: "2024-01-15T14:00:00Z"},
			End:     &calendar.EventDateTime{DateTime: "2024-01-15T15:00:00Z"},
			Attendees: []*calendar.EventAttendee{
				{Email: "user@example.com"},
				{Email: "client@example.com"},
			},
			Location: "Zoom",
		},
	}, nil
}

// EventView is the flattened event shape returned to clients.
type EventView struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Attendees []string `json:"attendees"`
	Location  string   `json:"location,omitempty"`
}

// ViewOf flattens a calendar event. All-day events report their date.
func ViewOf(e *calendar.Event) EventView {
	v := EventView{
		ID:        e.Id,
		Title:     e.Summary,
		Start:     eventTime(e.Start),
		End:       eventTime(e.End),
		Attendees: make([]string, 0, len(e.Attendees)),
		Location:  e.Location,
	}
	for _, a := range e.Attendees {
		v.Attendees = append(v.Attendees, a.Email)
	}
	return v
}

func eventTime(t *calendar.EventDateTime) string {
	switch {
	case t == nil:
		return ""
	case t.DateTime != "":
		return t.DateTime
	default:
		return t.Date
	}
}
