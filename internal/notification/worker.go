package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fkhayef/pantryledger/internal/metrics"
)

// Publisher accepts ledger events without blocking the caller
type Publisher interface {
	Publish(e Event)
}

// EventStore persists events
type EventStore interface {
	Save(ctx context.Context, e Event) error
}

// Worker buffers published events and persists them on a background goroutine
type Worker struct {
	eventCh chan Event
	store   EventStore
	logger  *slog.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorker creates a worker with a buffer of bufferSize events
func NewWorker(store EventStore, bufferSize int, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan Event, bufferSize),
		store:   store,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the persisting goroutine
func (w *Worker) Start() {
	w.wg.Go(func() {
		for {
			select {
			case <-w.ctx.Done():
				w.logger.Info("draining events before shutdown", "remaining_events", len(w.eventCh))
				for len(w.eventCh) > 0 {
					event := <-w.eventCh
					if err := w.store.Save(context.Background(), event); err != nil {
						w.logger.Error("failed to save event during shutdown", "error", err, "event_type", event.Type)
					}
				}
				return
			case event := <-w.eventCh:
				if err := w.store.Save(w.ctx, event); err != nil {
					w.logger.Error("failed to save event", "error", err, "event_type", event.Type)
				}
			}
		}
	})
}

// Publish queues an event. When the buffer is full the event is dropped.
func (w *Worker) Publish(event Event) {
	select {
	case w.eventCh <- event:
	default:
		metrics.EventsDropped.Inc()
		w.logger.Warn("event channel full, dropping event",
			"event_type", event.Type,
			"household_id", event.HouseholdID,
		)
	}
}

// Shutdown stops the worker after persisting everything still buffered
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

// Discard is a Publisher that drops every event
type Discard struct{}

func (Discard) Publish(Event) {}
