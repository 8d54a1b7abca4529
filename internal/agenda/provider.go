package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ymorita/hisho/internal/domain"
)

// ErrPermissionDenied means calendar access has not been granted. It is
// fatal to an aggregation cycle: no snapshot can be produced without a
// source registry.
var ErrPermissionDenied = errors.New("calendar access denied")

// ErrSourceUnavailable means the provider failed to enumerate calendars.
var ErrSourceUnavailable = errors.New("calendar source unavailable")

// SourceError wraps a per-source fetch failure. Unlike registry failures it
// is recoverable: the cycle continues and the error surfaces in the
// snapshot's FetchErrors.
type SourceError struct {
	SourceID string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Provider is a calendar backend (device calendar store, CalDAV account,
// Google account). Implementations live under internal/clients.
type Provider interface {
	// RequestAccess verifies the provider is reachable and authorized.
	// Returns ErrPermissionDenied (possibly wrapped) when access is not
	// granted.
	RequestAccess(ctx context.Context) error

	// ListCalendars enumerates the available sources. Called once per
	// aggregation cycle; the set can change between calls.
	ListCalendars(ctx context.Context) ([]domain.CalendarSource, error)

	// ListEvents returns the concrete event instances of one calendar
	// within [start, end). Recurring events arrive already materialized.
	ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]domain.RawEvent, error)
}

// HolidayProvider supplies the public-holiday set of one calendar year as
// YYYY-MM-DD keys. Consulted once per year per session; failures degrade the
// overlay to weekend-only classification.
type HolidayProvider interface {
	Holidays(ctx context.Context, year int) (map[string]bool, error)
}
