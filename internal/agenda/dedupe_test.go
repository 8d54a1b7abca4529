package agenda_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/domain"
)

func event(sourceID, eventID string, start time.Time) domain.RawEvent {
	return domain.RawEvent{
		SourceID: sourceID,
		EventID:  eventID,
		StartAt:  start,
		EndAt:    start.Add(time.Hour),
	}
}

func TestDedupe(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input []domain.RawEvent
		want  []domain.RawEvent
	}{
		{
			name:  "empty input",
			input: nil,
			want:  []domain.RawEvent{},
		},
		{
			name: "overlapping sources, first source wins",
			input: []domain.RawEvent{
				event("A", "e1", day.Add(9*time.Hour)),
				event("B", "e1", day.Add(9*time.Hour)),
				event("B", "e2", day.Add(14*time.Hour)),
			},
			want: []domain.RawEvent{
				event("A", "e1", day.Add(9*time.Hour)),
				event("B", "e2", day.Add(14*time.Hour)),
			},
		},
		{
			name: "same event id with different starts are distinct instances",
			input: []domain.RawEvent{
				event("A", "weekly", day.Add(9*time.Hour)),
				event("A", "weekly", day.AddDate(0, 0, 7).Add(9*time.Hour)),
			},
			want: []domain.RawEvent{
				event("A", "weekly", day.Add(9*time.Hour)),
				event("A", "weekly", day.AddDate(0, 0, 7).Add(9*time.Hour)),
			},
		},
		{
			name: "triple duplicate collapses to one",
			input: []domain.RawEvent{
				event("A", "e1", day),
				event("B", "e1", day),
				event("C", "e1", day),
			},
			want: []domain.RawEvent{
				event("A", "e1", day),
			},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got := agenda.Dedupe(tt.input)

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dedupe() = %v, want %v", got, tt.want)
			}

			// No two outputs may share an identity.
			seen := make(map[agenda.EventIdentity]bool)
			for _, e := range got {
				id := agenda.IdentityOf(e)
				if seen[id] {
					t.Errorf("Dedupe() output contains duplicate identity %v", id)
				}
				seen[id] = true
			}

			// Idempotency: a second pass must be a no-op.
			again := agenda.Dedupe(got)
			if !reflect.DeepEqual(again, got) {
				t.Errorf("Dedupe() not idempotent: second pass = %v, want %v", again, got)
			}
		})
	}
}
