// Package audit delivers session events to a recorder off the request path.
package audit

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/ports"
	"github.com/campuslib/library-console/internal/pkg/metrics"
)

const (
	defaultWorkers = 2
	channelBuffer  = 64
	recordTimeout  = 5 * time.Second
)

// Dispatcher routes session events to a fixed set of workers by hashing the
// user ID, so events of one librarian are recorded in order.
type Dispatcher struct {
	workers  []chan domain.SessionEvent
	recorder ports.SessionEventRecorder
	log      zerolog.Logger
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, recorder ports.SessionEventRecorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.SessionEvent, numWorkers),
		recorder: recorder,
		log:      log.With().Str("component", "audit").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled or Close is
// called; in both cases events already queued are recorded first.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Publish never blocks: when a worker is backed up the event is dropped and
// counted. Events published after Close are ignored.
func (d *Dispatcher) Publish(ev domain.SessionEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	idx := d.shardIndex(ev.UserID)
	ch := d.workers[idx]
	select {
	case ch <- ev:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(ch)))
	default:
		metrics.AuditErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().Str("event_id", ev.ID).Str("kind", string(ev.Kind)).Msg("audit queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be recorded.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) shardIndex(userID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(userID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.record(ctx, id, ev)
		}
	}
}

// drain records whatever is already queued on ch without waiting for more.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			d.record(ctx, id, ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, worker int, ev domain.SessionEvent) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := d.recorder.Record(rctx, ev); err != nil {
		metrics.AuditErrorsTotal.WithLabelValues("record_failed").Inc()
		d.log.Error().Err(err).
			Str("event_id", ev.ID).
			Str("kind", string(ev.Kind)).
			Int("worker_id", worker).
			Msg("session event recording failed")
	}
}
