package agenda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ymorita/hisho/internal/domain"
)

// State is the lifecycle state of an aggregation session.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer receives every publication: the session state and, when one
// exists, the currently visible snapshot.
type Observer func(state State, snap *domain.Snapshot)

// Session drives the aggregation pipeline for one screen. Triggers (initial
// load, month navigation, manual refresh) are totally ordered by a
// monotonically increasing generation counter; each cycle captures its
// generation at trigger time and re-checks it at publish time, so a result
// belonging to a superseded trigger is discarded instead of overwriting
// newer data. The underlying fetches are not interrupted, only their
// publication is.
type Session struct {
	provider Provider
	holidays HolidayProvider
	loc      *time.Location
	log      *logrus.Entry

	now func() time.Time

	mu           sync.Mutex
	gen          uint64
	settledGen   uint64 // highest generation that published or failed
	state        State
	snapshot     *domain.Snapshot
	lastErr      error
	lastRange    domain.Range
	hasRange     bool
	holidayCache map[int]map[string]bool
	observers    []Observer
	changed      chan struct{} // closed and replaced on every settle
}

// NewSession creates an idle session. holidays may be nil, in which case the
// overlay runs in weekend-only mode.
func NewSession(p Provider, holidays HolidayProvider, loc *time.Location, log *logrus.Entry) *Session {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &Session{
		provider:     p,
		holidays:     holidays,
		loc:          loc,
		log:          log,
		now:          time.Now,
		state:        StateIdle,
		holidayCache: make(map[int]map[string]bool),
		changed:      make(chan struct{}),
	}
}

// Subscribe registers an observer for future publications.
func (s *Session) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the last published snapshot, or nil before the first
// successful cycle. The returned snapshot is immutable.
func (s *Session) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Err returns the registry-level error of the last failed cycle, if the
// session is in StateFailed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Location returns the session's display timezone.
func (s *Session) Location() *time.Location {
	return s.loc
}

// LoadRange starts a new aggregation cycle for r and returns its trigger
// generation. The outcome is delivered through observers; Wait can block on
// the returned generation.
func (s *Session) LoadRange(ctx context.Context, r domain.Range) uint64 {
	s.mu.Lock()
	s.gen++
	g := s.gen
	s.lastRange = r
	s.hasRange = true
	s.state = StateFetching
	snap := s.snapshot
	s.mu.Unlock()

	s.notify(StateFetching, snap)
	go s.run(ctx, g, r)
	return g
}

// Refresh re-runs the last loaded range, defaulting to today's day view
// when nothing has been loaded yet.
func (s *Session) Refresh(ctx context.Context) uint64 {
	s.mu.Lock()
	r := s.lastRange
	if !s.hasRange {
		r = domain.DayRange(s.now().In(s.loc))
	}
	s.mu.Unlock()
	return s.LoadRange(ctx, r)
}

// Wait blocks until the trigger with generation g, or any newer one, has
// published or failed. It returns the then-visible snapshot, or the
// registry error if the settled outcome was a failure.
func (s *Session) Wait(ctx context.Context, g uint64) (*domain.Snapshot, error) {
	for {
		s.mu.Lock()
		if s.settledGen >= g {
			snap, err := s.snapshot, s.lastErr
			s.mu.Unlock()
			return snap, err
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
	}
}

func (s *Session) run(ctx context.Context, g uint64, r domain.Range) {
	snap, err := s.aggregate(ctx, r)

	s.mu.Lock()
	if g != s.gen {
		// A newer trigger superseded this cycle while it was in flight.
		// Its result must never become visible.
		current := s.gen
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{"generation": g, "current": current}).
			Debug("discarding superseded aggregation result")
		return
	}

	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		s.settleLocked(g)
		s.mu.Unlock()

		s.log.WithError(err).WithField("generation", g).Error("aggregation failed")
		s.notify(StateFailed, nil)
		return
	}

	s.snapshot = snap
	s.lastErr = nil
	s.state = StateReady
	s.settleLocked(g)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"generation": g,
		"days":       len(snap.Buckets),
		"errors":     len(snap.FetchErrors),
	}).Info("aggregation published")
	s.notify(StateReady, snap)

	// Ready is transient: the snapshot stays visible while the session
	// settles back to idle awaiting the next trigger.
	s.mu.Lock()
	if s.state == StateReady {
		s.state = StateIdle
	}
	s.mu.Unlock()
}

// settleLocked marks generation g as settled and wakes waiters. Caller
// holds s.mu.
func (s *Session) settleLocked(g uint64) {
	if g > s.settledGen {
		s.settledGen = g
	}
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) notify(state State, snap *domain.Snapshot) {
	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, obs := range observers {
		obs(state, snap)
	}
}

// aggregate runs one full pipeline pass: registry, fan-out fetch, dedupe,
// bucket, overlay. Only registry-level failures return an error; per-source
// failures end up in the snapshot's FetchErrors.
func (s *Session) aggregate(ctx context.Context, r domain.Range) (*domain.Snapshot, error) {
	if err := s.provider.RequestAccess(ctx); err != nil {
		return nil, err
	}

	sources, err := s.provider.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	results := FetchAll(ctx, s.provider, sources, r)

	var all []domain.RawEvent
	var fetchErrs []domain.FetchError
	colors := make(map[string]string, len(sources))

	for _, res := range results {
		colors[res.Source.ID] = res.Source.Color
		if res.Err != nil {
			fetchErrs = append(fetchErrs, domain.FetchError{
				SourceID: res.Source.ID,
				Message:  res.Err.Error(),
			})
			continue
		}
		all = append(all, res.Events...)
	}

	buckets := Bucket(Dedupe(all), r)

	holidays := s.holidaysFor(ctx, r)
	now := s.now().In(s.loc)

	classifications := make(map[string]domain.DayClassification, len(buckets))
	for _, day := range r.Days() {
		classifications[domain.DayKey(day)] = Classify(day, holidays, now)
	}

	return &domain.Snapshot{
		Range:           r,
		Buckets:         buckets,
		SourceColors:    colors,
		Classifications: classifications,
		FetchErrors:     fetchErrs,
		FetchedAt:       s.now(),
	}, nil
}

// holidaysFor merges the cached holiday sets of every year touched by r,
// fetching missing years from the provider. A fetch failure degrades that
// year to weekend-only classification instead of failing the cycle.
func (s *Session) holidaysFor(ctx context.Context, r domain.Range) map[string]bool {
	merged := make(map[string]bool)
	if s.holidays == nil {
		return merged
	}

	last := r.End.Add(-time.Nanosecond)
	for year := r.Start.Year(); year <= last.Year(); year++ {
		s.mu.Lock()
		set, ok := s.holidayCache[year]
		s.mu.Unlock()

		if !ok {
			var err error
			set, err = s.holidays.Holidays(ctx, year)
			if err != nil {
				s.log.WithError(err).WithField("year", year).Warn("holiday fetch failed; weekend-only overlay")
				continue
			}
			s.mu.Lock()
			s.holidayCache[year] = set
			s.mu.Unlock()
		}

		for k, v := range set {
			if v {
				merged[k] = true
			}
		}
	}

	return merged
}
