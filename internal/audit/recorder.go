package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/cma-api/internal/events"
)

type Store interface {
	RecordSearch(ctx context.Context, evt events.SearchCompleted) error
}

// Recorder consumes search.completed events and writes them to the audit
// store. Write failures are logged and the event is dropped.
type Recorder struct {
	Source  <-chan events.SearchCompleted
	Store   Store
	Timeout time.Duration
	Logger  *slog.Logger
}

// Run blocks until ctx is done or Source is closed. Events still buffered at
// shutdown are flushed before returning.
func (r *Recorder) Run(ctx context.Context) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "audit")
	for {
		select {
		case <-ctx.Done():
			r.drain(log)
			return
		case evt, ok := <-r.Source:
			if !ok {
				return
			}
			r.record(ctx, log, evt)
		}
	}
}

func (r *Recorder) drain(log *slog.Logger) {
	for {
		select {
		case evt, ok := <-r.Source:
			if !ok {
				return
			}
			r.record(context.Background(), log, evt)
		default:
			return
		}
	}
}

func (r *Recorder) record(ctx context.Context, log *slog.Logger, evt events.SearchCompleted) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := r.Store.RecordSearch(ctx, evt); err != nil {
		log.Warn("audit write failed", "search_id", evt.SearchID, "error", err)
		return
	}
	log.Debug("search recorded", "search_id", evt.SearchID, "results", evt.Results)
}
