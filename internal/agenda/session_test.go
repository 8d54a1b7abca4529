package agenda_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ymorita/hisho/internal/agenda"
	"github.com/ymorita/hisho/internal/domain"
)

type fakeHolidays struct {
	mu    sync.Mutex
	calls int
	sets  map[int]map[string]bool
	err   error
}

func (h *fakeHolidays) Holidays(ctx context.Context, year int) (map[string]bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return h.sets[year], nil
}

func TestSessionPublishesConsistentSnapshot(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	r := domain.MonthRange(2024, time.June, time.UTC)

	p := &fakeProvider{
		sources: []domain.CalendarSource{
			{ID: "A", Color: "#007AFF"},
			{ID: "B", Color: "#FF3B30"},
		},
		listEvents: func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error) {
			if calendarID == "A" {
				return []domain.RawEvent{event("A", "e1", day.Add(9 * time.Hour))}, nil
			}
			return []domain.RawEvent{
				event("B", "e1", day.Add(9*time.Hour)),
				event("B", "e2", day.Add(14*time.Hour)),
			}, nil
		},
	}
	holidays := &fakeHolidays{sets: map[int]map[string]bool{2024: {"2024-06-12": true}}}

	s := agenda.NewSession(p, holidays, time.UTC, nil)

	snap, err := s.Wait(context.Background(), s.LoadRange(context.Background(), r))
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	events := snap.Buckets["2024-06-10"].Events
	if len(events) != 2 {
		t.Fatalf("bucket 2024-06-10 has %d events, want 2 after dedupe", len(events))
	}
	if events[0].EventID != "e1" || events[0].SourceID != "A" {
		t.Errorf("first event = %s from %s, want e1 from A (source order wins)", events[0].EventID, events[0].SourceID)
	}
	if events[1].EventID != "e2" {
		t.Errorf("second event = %s, want e2", events[1].EventID)
	}

	if len(snap.Classifications) != 30 {
		t.Errorf("snapshot has %d classifications, want one per June day (30)", len(snap.Classifications))
	}
	if !snap.Classifications["2024-06-12"].IsHoliday {
		t.Errorf("2024-06-12 not classified as holiday")
	}
	if snap.SourceColors["B"] != "#FF3B30" {
		t.Errorf("SourceColors[B] = %q, want #FF3B30", snap.SourceColors["B"])
	}
	if len(snap.FetchErrors) != 0 {
		t.Errorf("FetchErrors = %v, want none", snap.FetchErrors)
	}

	if got := s.State(); got != agenda.StateIdle {
		t.Errorf("session state after publish = %v, want idle", got)
	}
}

func TestSessionPartialSourceFailureStillPublishes(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	p := &fakeProvider{
		sources: []domain.CalendarSource{
			{ID: "A", Color: "#007AFF"},
			{ID: "B", Color: "#FF3B30"},
		},
		listEvents: func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error) {
			if calendarID == "B" {
				return nil, errors.New("backend timeout")
			}
			return []domain.RawEvent{event("A", "e1", day.Add(9 * time.Hour))}, nil
		},
	}

	s := agenda.NewSession(p, nil, time.UTC, nil)

	snap, err := s.Wait(context.Background(), s.LoadRange(context.Background(), domain.DayRange(day)))
	if err != nil {
		t.Fatalf("Wait() error = %v, want published snapshot despite source failure", err)
	}

	if len(snap.Buckets["2024-06-10"].Events) != 1 {
		t.Errorf("surviving source's events missing from snapshot")
	}
	if len(snap.FetchErrors) != 1 || snap.FetchErrors[0].SourceID != "B" {
		t.Fatalf("FetchErrors = %v, want exactly one entry for source B", snap.FetchErrors)
	}
}

func TestSessionPermissionDeniedFails(t *testing.T) {
	p := &fakeProvider{accessErr: agenda.ErrPermissionDenied}

	s := agenda.NewSession(p, nil, time.UTC, nil)

	snap, err := s.Wait(context.Background(), s.Refresh(context.Background()))
	if !errors.Is(err, agenda.ErrPermissionDenied) {
		t.Fatalf("Wait() error = %v, want ErrPermissionDenied", err)
	}
	if snap != nil {
		t.Errorf("snapshot = %v, want nil when no cycle ever succeeded", snap)
	}
	if got := s.State(); got != agenda.StateFailed {
		t.Errorf("session state = %v, want failed", got)
	}
}

func TestSessionDiscardsSupersededResult(t *testing.T) {
	juneDay := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	julyDay := time.Date(2024, 7, 5, 9, 0, 0, 0, time.UTC)
	juneGate := make(chan struct{})

	p := &fakeProvider{
		sources: []domain.CalendarSource{{ID: "A", Color: "#007AFF"}},
		listEvents: func(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error) {
			if start.Month() == time.June {
				<-juneGate // June's fetch hangs until released
				return []domain.RawEvent{event("A", "june-ev", juneDay)}, nil
			}
			return []domain.RawEvent{event("A", "july-ev", julyDay)}, nil
		},
	}

	s := agenda.NewSession(p, nil, time.UTC, nil)

	var mu sync.Mutex
	var published []domain.Range
	s.Subscribe(func(state agenda.State, snap *domain.Snapshot) {
		if state == agenda.StateReady {
			mu.Lock()
			published = append(published, snap.Range)
			mu.Unlock()
		}
	})

	s.LoadRange(context.Background(), domain.MonthRange(2024, time.June, time.UTC))
	g2 := s.LoadRange(context.Background(), domain.MonthRange(2024, time.July, time.UTC))

	snap, err := s.Wait(context.Background(), g2)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if snap.Range.Start.Month() != time.July {
		t.Fatalf("published snapshot covers %v, want July", snap.Range.Start.Month())
	}

	// Release June's fetch; its late result must be discarded, not
	// published over July's.
	close(juneGate)
	time.Sleep(100 * time.Millisecond)

	after := s.Snapshot()
	if after.Range.Start.Month() != time.July {
		t.Errorf("snapshot after stale completion covers %v, want July", after.Range.Start.Month())
	}
	if _, ok := after.Buckets["2024-06-10"]; ok {
		t.Errorf("June bucket leaked into July snapshot")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(published) != 1 || published[0].Start.Month() != time.July {
		t.Errorf("published ranges = %v, want exactly one July publication", published)
	}
}

func TestSessionHolidayFetchFailureDegrades(t *testing.T) {
	p := &fakeProvider{sources: []domain.CalendarSource{{ID: "A"}}}
	holidays := &fakeHolidays{err: errors.New("holiday api down")}

	s := agenda.NewSession(p, holidays, time.UTC, nil)

	snap, err := s.Wait(context.Background(), s.LoadRange(context.Background(), domain.MonthRange(2024, time.June, time.UTC)))
	if err != nil {
		t.Fatalf("Wait() error = %v, want degraded snapshot, not failure", err)
	}

	// Weekend-only classification: Sundays still flagged, weekdays never.
	if !snap.Classifications["2024-06-09"].IsHoliday {
		t.Errorf("Sunday 2024-06-09 lost holiday flag in degraded mode")
	}
	if snap.Classifications["2024-06-12"].IsHoliday {
		t.Errorf("weekday flagged as holiday with no holiday data")
	}
}

func TestSessionHolidaySetCachedPerYear(t *testing.T) {
	p := &fakeProvider{sources: []domain.CalendarSource{{ID: "A"}}}
	holidays := &fakeHolidays{sets: map[int]map[string]bool{2024: {"2024-06-12": true}}}

	s := agenda.NewSession(p, holidays, time.UTC, nil)
	ctx := context.Background()

	if _, err := s.Wait(ctx, s.LoadRange(ctx, domain.MonthRange(2024, time.June, time.UTC))); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if _, err := s.Wait(ctx, s.LoadRange(ctx, domain.MonthRange(2024, time.July, time.UTC))); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	holidays.mu.Lock()
	defer holidays.mu.Unlock()
	if holidays.calls != 1 {
		t.Errorf("holiday provider called %d times, want 1 (cached per year)", holidays.calls)
	}
}
