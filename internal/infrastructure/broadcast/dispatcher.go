// Package broadcast fans domain events out to a realtime sink through a
// pool of sharded workers. Publishing is fire-and-forget: a full queue drops
// the event rather than blocking the write path, and sink failures are
// logged, never returned.
package broadcast

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/taskmgr/task-manager-api/internal/api/metrics"
	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Sink is the delivery backend, typically Redis pub/sub.
type Sink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Dispatcher routes events to a fixed set of workers using consistent
// hashing on the task id, so events of one task are delivered in order.
type Dispatcher struct {
	workers []chan domain.Event
	sink    Sink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink Sink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Event, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Publish hands the event to the worker responsible for its task. The call
// never blocks: when the worker's queue is full the event is dropped and
// counted.
func (d *Dispatcher) Publish(event domain.Event) {
	select {
	case d.workers[d.shardIndex(event.TaskID)] <- event:
	default:
		metrics.EventsDroppedTotal.Inc()
		d.log.Warn().
			Str("type", string(event.Type)).
			Str("task_id", event.TaskID).
			Msg("broadcast queue full, event dropped")
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.Publish(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("type", string(event.Type)).
					Str("task_id", event.TaskID).
					Int("worker_id", id).
					Msg("event delivery failed")
				continue
			}
			metrics.EventsPublishedTotal.WithLabelValues(string(event.Type)).Inc()
		}
	}
}
