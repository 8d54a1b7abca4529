package agenda

import "github.com/ymorita/hisho/internal/domain"

// EventIdentity is the derived key under which two raw events are the same
// logical event. Recurring-instance ids are reused across occurrences, so
// the start time participates in the key.
type EventIdentity struct {
	EventID   string
	StartUnix int64
}

// IdentityOf returns the identity key of e.
func IdentityOf(e domain.RawEvent) EventIdentity {
	return EventIdentity{EventID: e.EventID, StartUnix: e.StartAt.UnixNano()}
}

// Dedupe collapses records sharing an EventIdentity in a single pass. The
// first record in input order wins; since FetchAll preserves source order,
// the result is deterministic for a given registry enumeration. Applying
// Dedupe to its own output is a no-op.
func Dedupe(events []domain.RawEvent) []domain.RawEvent {
	seen := make(map[EventIdentity]struct{}, len(events))
	out := make([]domain.RawEvent, 0, len(events))

	for _, e := range events {
		id := IdentityOf(e)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, e)
	}

	return out
}
