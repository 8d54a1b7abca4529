package domain

import "time"

// Range is a half-open [Start, End) interval. For day views it is aligned to
// local midnight, for month views to whole-month boundaries. Both bounds
// carry the display timezone.
type Range struct {
	Start time.Time
	End   time.Time
}

// DayRange returns the range covering the local calendar day of t.
func DayRange(t time.Time) Range {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return Range{Start: start, End: start.AddDate(0, 0, 1)}
}

// MonthRange returns the range covering the given month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) Range {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Range{Start: start, End: start.AddDate(0, 1, 0)}
}

// Contains reports whether t falls inside the half-open interval.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Days returns the local midnight of every calendar day fully or partially
// covered by the range, in chronological order.
func (r Range) Days() []time.Time {
	var days []time.Time
	d := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, r.Start.Location())
	for d.Before(r.End) {
		days = append(days, d)
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// DayBucket holds the events of exactly one local calendar day, sorted by
// (StartAt ascending, EventID ascending).
type DayBucket struct {
	Date   time.Time
	Events []RawEvent
}

// Display tints for day cells. Precedence: today > holiday-or-Sunday >
// Saturday > none. The hex values match the mobile UI.
const (
	TintToday    = "#d1f5d3"
	TintHoliday  = "#ffe6e6"
	TintSaturday = "#e6f0ff"
	TintNone     = ""
)

// DayClassification is the derived display classification of one day.
// It is computed per snapshot and never persisted.
type DayClassification struct {
	Date      time.Time
	IsToday   bool
	IsHoliday bool // public holiday or Sunday
	Weekday   time.Weekday
	Tint      string
}

// FetchError records a per-source retrieval failure that degraded, but did
// not abort, an aggregation cycle.
type FetchError struct {
	SourceID string
	Message  string
}

// Snapshot is one immutable, fully consistent aggregation result for a date
// range. It is replaced wholesale on every successful cycle and must never
// be mutated after publication.
type Snapshot struct {
	Range           Range
	Buckets         map[string]DayBucket
	SourceColors    map[string]string
	Classifications map[string]DayClassification
	FetchErrors     []FetchError
	FetchedAt       time.Time
}
