package agenda

import (
	"time"

	"github.com/ymorita/hisho/internal/domain"
)

// Classify derives the display classification of one calendar day. holidays
// is keyed by YYYY-MM-DD; Sundays count as holidays even when absent from
// the set. IsToday is computed independently, and the tint resolves with
// precedence today > holiday-or-Sunday > Saturday > none, so today's
// highlight wins even on a holiday.
func Classify(day time.Time, holidays map[string]bool, now time.Time) domain.DayClassification {
	c := domain.DayClassification{
		Date:    day,
		Weekday: day.Weekday(),
	}

	c.IsToday = domain.DayKey(day) == domain.DayKey(now.In(day.Location()))
	c.IsHoliday = holidays[domain.DayKey(day)] || day.Weekday() == time.Sunday

	switch {
	case c.IsToday:
		c.Tint = domain.TintToday
	case c.IsHoliday:
		c.Tint = domain.TintHoliday
	case day.Weekday() == time.Saturday:
		c.Tint = domain.TintSaturday
	default:
		c.Tint = domain.TintNone
	}

	return c
}
