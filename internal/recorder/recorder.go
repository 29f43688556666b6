// Package recorder moves world events off the simulation goroutine and
// into the configured storage backend and metrics writer.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/OCAP2/navalsim/internal/logging"
	"github.com/OCAP2/navalsim/internal/storage"
	"github.com/OCAP2/navalsim/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/navalsim/internal/recorder"

// DefaultBufferSize is used when Dependencies.BufferSize is not set.
const DefaultBufferSize = 4096

// MetricWriter receives every event after it was stored.
type MetricWriter interface {
	WriteEvent(battle string, e core.Event) error
}

// OutcomeRecorder is an optional interface for backends that store the
// winning side.
type OutcomeRecorder interface {
	SetOutcome(side string) error
}

// Dependencies holds all dependencies for the recorder
type Dependencies struct {
	Backend    storage.Backend
	Metrics    MetricWriter
	LogManager *logging.SlogManager
	BufferSize int
}

// Recorder is a world.EventSink. Publish never blocks the tick: when the
// buffer is full the event is dropped and counted.
type Recorder struct {
	deps   Dependencies
	buf    eventBuffer
	battle core.Battle

	mu      sync.RWMutex
	started bool
	stopped bool
	done    chan struct{}

	recorded atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64

	recordedCounter metric.Int64Counter
	droppedCounter  metric.Int64Counter
	failedCounter   metric.Int64Counter
}

// New creates a recorder. Uses the global OTel meter for metrics (no-op if not configured).
func New(deps Dependencies) (*Recorder, error) {
	if deps.Backend == nil {
		return nil, errors.New("storage backend is required")
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.BufferSize <= 0 {
		deps.BufferSize = DefaultBufferSize
	}

	r := &Recorder{
		deps: deps,
		buf:  newBuffer(deps.BufferSize),
		done: make(chan struct{}),
	}

	m := otel.Meter(instrumentationName)
	var err error
	r.recordedCounter, err = m.Int64Counter("recorder.events.recorded",
		metric.WithDescription("Events handed to the storage backend"))
	if err != nil {
		return nil, fmt.Errorf("create recorded counter: %w", err)
	}
	r.droppedCounter, err = m.Int64Counter("recorder.events.dropped",
		metric.WithDescription("Events dropped because the recorder buffer was full"))
	if err != nil {
		return nil, fmt.Errorf("create dropped counter: %w", err)
	}
	r.failedCounter, err = m.Int64Counter("recorder.events.failed",
		metric.WithDescription("Events the storage backend rejected"))
	if err != nil {
		return nil, fmt.Errorf("create failed counter: %w", err)
	}
	return r, nil
}

// Start records the battle header and starts the consumer goroutine.
func (r *Recorder) Start(battle *core.Battle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("recorder already started")
	}
	if err := r.deps.Backend.StartBattle(battle); err != nil {
		return fmt.Errorf("start battle: %w", err)
	}
	r.battle = *battle
	r.started = true
	go r.consume()
	return nil
}

// Publish hands an event to the consumer goroutine.
func (r *Recorder) Publish(e core.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.started || r.stopped {
		return
	}
	if !r.buf.offer(e) {
		r.dropped.Add(1)
		r.droppedCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", e.EventType())))
	}
}

func (r *Recorder) consume() {
	defer close(r.done)
	ctx := context.Background()
	for e := range r.buf.events() {
		attrs := metric.WithAttributes(attribute.String("type", e.EventType()))
		if err := storage.Record(r.deps.Backend, e); err != nil {
			r.failed.Add(1)
			r.failedCounter.Add(ctx, 1, attrs)
			r.deps.LogManager.WriteLog("recorder", fmt.Sprintf("Error recording %s: %v", e.EventType(), err), "ERROR")
			continue
		}
		r.recorded.Add(1)
		r.recordedCounter.Add(ctx, 1, attrs)

		if r.deps.Metrics != nil {
			if err := r.deps.Metrics.WriteEvent(r.battle.Name, e); err != nil {
				r.deps.LogManager.WriteLog("recorder", fmt.Sprintf("Error writing metric for %s: %v", e.EventType(), err), "WARN")
			}
		}
	}
}

// Stop drains the buffer, records the outcome if the backend supports it
// and ends the battle. An empty winner means undecided.
func (r *Recorder) Stop(winner string) error {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.buf.close()
	r.mu.Unlock()

	<-r.done

	var errs []error
	if o, ok := r.deps.Backend.(OutcomeRecorder); ok && winner != "" {
		errs = append(errs, o.SetOutcome(winner))
	}
	if err := r.deps.Backend.EndBattle(); err != nil {
		errs = append(errs, fmt.Errorf("end battle: %w", err))
	}
	if d := r.dropped.Load(); d > 0 {
		r.deps.LogManager.WriteLog("recorder", fmt.Sprintf("%d events dropped during battle %q", d, r.battle.Name), "WARN")
	}
	return errors.Join(errs...)
}

// Buffered returns the number of events waiting to be recorded.
func (r *Recorder) Buffered() int { return r.buf.pending() }

func (r *Recorder) Recorded() uint64 { return r.recorded.Load() }
func (r *Recorder) Dropped() uint64  { return r.dropped.Load() }
func (r *Recorder) Failed() uint64   { return r.failed.Load() }
