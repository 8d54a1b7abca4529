package domain

import "time"

// DayKeyFormat is the key format for day-indexed maps (local calendar day).
const DayKeyFormat = "2006-01-02"

// DayKey returns the calendar-day key for t in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// CalendarSource is one independently enumerable calendar on a provider.
// The set of sources can change between app foregrounds, so it is
// re-enumerated on every aggregation cycle rather than cached.
type CalendarSource struct {
	ID    string
	Name  string
	Color string // display color, e.g. "#007AFF"
}

// RawEvent is a single concrete event instance as returned by a provider.
// Recurring events arrive already materialized into instances; the EventID
// of such an instance is reused across occurrences, so (EventID, StartAt)
// identifies the logical event, not EventID alone.
type RawEvent struct {
	SourceID string
	EventID  string
	Title    string
	Location string
	StartAt  time.Time
	EndAt    time.Time
	AllDay   bool
}

// FormatTime returns the event's time span for display.
func (e RawEvent) FormatTime() string {
	if e.AllDay {
		return "終日"
	}
	if e.EndAt.IsZero() {
		return e.StartAt.Format("15:04")
	}
	return e.StartAt.Format("15:04") + "〜" + e.EndAt.Format("15:04")
}
