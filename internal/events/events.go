package events

import (
	"context"
	"time"
)

const RoutingKeySearchCompleted = "search.completed"

// SearchCompleted summarizes one comparables search. It never carries
// candidate data.
type SearchCompleted struct {
	SearchID      string    `json:"searchId"`
	TraceID       string    `json:"traceId,omitempty"`
	Query         string    `json:"query,omitempty"`
	Criteria      bool      `json:"criteria"`
	Strategy      string    `json:"strategy,omitempty"`
	Tier          string    `json:"tier,omitempty"`
	ProviderCalls int       `json:"providerCalls"`
	Results       int       `json:"results"`
	Geohash       string    `json:"geohash,omitempty"`
	DurationMS    int64     `json:"durationMs"`
	At            time.Time `json:"at"`
}

type Publisher interface {
	PublishSearchCompleted(ctx context.Context, evt SearchCompleted)
}

// Bus is an in-process publisher with a single subscriber channel. Publishing
// never blocks; events are dropped when the buffer is full.
type Bus struct{ ch chan SearchCompleted }

func NewInMemory(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{ch: make(chan SearchCompleted, buffer)}
}

func (b *Bus) PublishSearchCompleted(_ context.Context, evt SearchCompleted) {
	select {
	case b.ch <- evt:
	default:
	}
}

func (b *Bus) Subscribe() <-chan SearchCompleted { return b.ch }

// Multi fans an event out to every publisher in order.
type Multi []Publisher

func (m Multi) PublishSearchCompleted(ctx context.Context, evt SearchCompleted) {
	for _, p := range m {
		if p != nil {
			p.PublishSearchCompleted(ctx, evt)
		}
	}
}

type Nop struct{}

func (Nop) PublishSearchCompleted(context.Context, SearchCompleted) {}
