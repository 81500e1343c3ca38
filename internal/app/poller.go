package app

import (
	"context"
	"time"
)

// DefaultPollInterval is the fixed cadence between status fetches while a
// repository is indexing. The awaited unit of work is a whole repository
// index, so no jitter or backoff.
const DefaultPollInterval = 1500 * time.Millisecond

// StatusFetcher is the one service operation the poller needs.
type StatusFetcher interface {
	Status(ctx context.Context) (IndexSummary, error)
}

// Poller drives the indexing status to a terminal state: one immediate
// fetch, then one fetch per interval while the status stays indexing. Run
// blocks between fetches, so at most one fetch is ever outstanding.
type Poller struct {
	Fetch    StatusFetcher
	Interval time.Duration
}

func NewPoller(fetch StatusFetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{Fetch: fetch, Interval: interval}
}

// Run reports each summary through apply until the status leaves indexing,
// a fetch fails, or ctx is cancelled. A fetch failure is reported to apply
// as an error summary before Run returns it; polling does not survive a
// failed fetch. apply may return false to stop early, e.g. when the caller
// knows the indexing run has been superseded.
//
// There is deliberately no fetch-count or wall-clock limit: an index job
// that never terminates is a backend concern, and cancellation is the
// caller's ctx.
func (p *Poller) Run(ctx context.Context, apply func(IndexSummary) bool) error {
	step := func() (bool, error) {
		sum, err := p.Fetch.Status(ctx)
		if err != nil {
			apply(IndexSummary{Status: StatusError, Detail: err.Error()})
			return false, err
		}
		return apply(sum) && sum.Status == StatusIndexing, nil
	}

	again, err := step()
	if err != nil || !again {
		return err
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			again, err := step()
			if err != nil || !again {
				return err
			}
		}
	}
}
