package agenda

import (
	"sort"

	"github.com/ymorita/hisho/internal/domain"
)

// Bucket groups events by local calendar day. Every day covered by r gets
// an entry even when it has no events; the view layer renders empty day
// cells from key presence. Events whose start falls outside r are dropped.
// All-day events land in the bucket of their start date only, with no
// multi-day spanning.
func Bucket(events []domain.RawEvent, r domain.Range) map[string]domain.DayBucket {
	loc := r.Start.Location()

	buckets := make(map[string]domain.DayBucket)
	for _, day := range r.Days() {
		buckets[domain.DayKey(day)] = domain.DayBucket{Date: day, Events: []domain.RawEvent{}}
	}

	for _, e := range events {
		start := e.StartAt.In(loc)
		if !r.Contains(start) {
			continue
		}
		key := domain.DayKey(start)
		b, ok := buckets[key]
		if !ok {
			continue
		}
		b.Events = append(b.Events, e)
		buckets[key] = b
	}

	// In-bucket order: start time ascending, event id as tie-break.
	for _, b := range buckets {
		sort.Slice(b.Events, func(i, j int) bool {
			if !b.Events[i].StartAt.Equal(b.Events[j].StartAt) {
				return b.Events[i].StartAt.Before(b.Events[j].StartAt)
			}
			return b.Events[i].EventID < b.Events[j].EventID
		})
	}

	return buckets
}
