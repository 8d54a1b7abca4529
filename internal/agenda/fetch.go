package agenda

import (
	"context"
	"sync"

	"github.com/ymorita/hisho/internal/domain"
)

// SourceResult is the outcome of fetching one source: either its events or
// the error that made it drop out of the cycle.
type SourceResult struct {
	Source domain.CalendarSource
	Events []domain.RawEvent
	Err    error
}

// FetchAll retrieves the events of every source concurrently. A failing
// source never aborts its siblings; its error is recorded in the result.
// Results come back in source order so that downstream deduplication keeps
// its deterministic first-wins tie-break.
func FetchAll(ctx context.Context, p Provider, sources []domain.CalendarSource, r domain.Range) []SourceResult {
	results := make([]SourceResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src domain.CalendarSource) {
			defer wg.Done()

			events, err := p.ListEvents(ctx, src.ID, r.Start, r.End)
			if err != nil {
				results[i] = SourceResult{Source: src, Err: &SourceError{SourceID: src.ID, Err: err}}
				return
			}
			results[i] = SourceResult{Source: src, Events: events}
		}(i, src)
	}
	wg.Wait()

	return results
}
