// Package dispatcher reconciles actions produced asynchronously by crew
// agents with the synchronous world tick. Producers Submit from any
// goroutine; the world Drains once per tick at a fixed point.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/navalsim/internal/action"
	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/internal/queue"
	"github.com/OCAP2/navalsim/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/OCAP2/navalsim/internal/dispatcher"

// ErrQueueFull is returned by Submit when a capacity is configured and reached.
var ErrQueueFull = errors.New("action queue full")

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Target is the world as seen by the drain: authority lookups and the
// single entry point that mutates vessels.
type Target interface {
	// Roster returns the roster of a live vessel.
	Roster(vessel string) (*crew.Roster, bool)
	Apply(a action.Action) error
}

// Option configures a Dispatcher.
type Option func(*config)

type config struct {
	capacity int
	logged   bool
	now      func() time.Time
}

// Capacity bounds the pending queue. Submissions beyond it are refused.
func Capacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}

// Logged adds debug logging for every drained action.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Clock overrides the time source used to stamp submissions.
func Clock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// Dispatcher is the action queue between interpretation and the tick.
type Dispatcher struct {
	cfg    config
	logger Logger

	mu       sync.Mutex
	seq      uint64
	pending  *queue.Queue[action.Action]
	failures *queue.Queue[action.Result]

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	accepted  metric.Int64Counter
	rejected  metric.Int64Counter
}

// New creates a Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger, opts ...Option) (*Dispatcher, error) {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Dispatcher{
		cfg:      cfg,
		logger:   logger,
		pending:  queue.New[action.Action](),
		failures: queue.New[action.Result](),
	}

	m := otel.Meter(meterName)

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of actions waiting for the drain"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(d.queueSize, int64(d.pending.Len()))
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.accepted, err = m.Int64Counter(
		"dispatcher.actions.accepted",
		metric.WithDescription("Total actions applied to the world"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating accepted counter: %w", err)
	}

	d.rejected, err = m.Int64Counter(
		"dispatcher.actions.rejected",
		metric.WithDescription("Total actions rejected, by code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	return d, nil
}

// Submit enqueues an action and returns its submission sequence. It never
// blocks and is safe to call concurrently with Drain.
func (d *Dispatcher) Submit(a action.Action) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a.IssuedAt.IsZero() {
		a.IssuedAt = d.cfg.now()
	}
	a.Seq = d.seq + 1
	if !d.pending.TryPush(d.cfg.capacity, a) {
		return 0, fmt.Errorf("%s %s from %s: %w", a.Vessel, a.Kind, a.ProducedBy, ErrQueueFull)
	}
	d.seq = a.Seq
	return a.Seq, nil
}

// Reject reports an order that never became an action, typically a failed
// or timed-out interpretation. It is returned by the next Drain and never
// reaches the action queue.
func (d *Dispatcher) Reject(a action.Action, err error) {
	if !errors.Is(err, core.ErrInterpretationFailed) {
		err = fmt.Errorf("%w: %w", core.ErrInterpretationFailed, err)
	}
	if a.IssuedAt.IsZero() {
		a.IssuedAt = d.cfg.now()
	}
	d.failures.Push(action.Result{Action: a, Err: err})
}

// Pending returns the number of actions waiting for the next drain.
func (d *Dispatcher) Pending() int {
	return d.pending.Len()
}

type roleKey struct {
	vessel string
	role   core.Role
}

// Drain takes every pending action and, in submission order, validates and
// applies it to the target. Rejections are returned, logged and counted,
// never retried.
func (d *Dispatcher) Drain(tick uint64, t Target) []action.Result {
	failures := d.failures.Drain()
	batch := d.pending.Drain()
	if len(failures) == 0 && len(batch) == 0 {
		return nil
	}

	results := make([]action.Result, 0, len(failures)+len(batch))
	for _, f := range failures {
		f.Tick = tick
		d.report(f)
		results = append(results, f)
	}

	roleUsed := make(map[roleKey]bool)
	agentUsed := make(map[string]bool)

	for _, a := range batch {
		start := time.Now()
		err := d.validate(a, t, roleUsed, agentUsed)
		if err == nil {
			err = t.Apply(a)
		}
		if err == nil {
			roleUsed[roleKey{a.Vessel, a.Role}] = true
			if a.Kind.ModuleAffecting() {
				agentUsed[a.ProducedBy] = true
			}
		}

		res := action.Result{Action: a, Tick: tick, Accepted: err == nil, Err: err}
		d.report(res)
		if d.cfg.logged {
			d.logger.Debug("action drained", "vessel", a.Vessel, "kind", a.Kind, "seq", a.Seq, "duration", time.Since(start))
		}
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) validate(a action.Action, t Target, roleUsed map[roleKey]bool, agentUsed map[string]bool) error {
	roster, ok := t.Roster(a.Vessel)
	if !ok {
		return fmt.Errorf("%q: %w", a.Vessel, core.ErrUnknownVessel)
	}
	if !action.Permitted(a.Role, a.Kind) {
		return fmt.Errorf("%w: %s may not %s", core.ErrInvalidActionParameters, a.Role, a.Kind)
	}
	if err := roster.Authorize(a.Role, a.ProducedBy); err != nil {
		return err
	}
	if roleUsed[roleKey{a.Vessel, a.Role}] {
		return fmt.Errorf("%s already acted for %s this tick: %w", a.Role, a.Vessel, core.ErrActionQuotaExceeded)
	}
	if a.Kind.ModuleAffecting() && agentUsed[a.ProducedBy] {
		return fmt.Errorf("%s already drove a module this tick: %w", a.ProducedBy, core.ErrActionQuotaExceeded)
	}
	return action.Validate(a)
}

func (d *Dispatcher) report(r action.Result) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("kind", string(r.Action.Kind)),
		attribute.String("code", r.Code()),
	)
	if r.Accepted {
		d.accepted.Add(ctx, 1, attrs)
		return
	}
	d.rejected.Add(ctx, 1, attrs)
	d.logger.Info("action rejected",
		"vessel", r.Action.Vessel,
		"role", r.Action.Role,
		"kind", r.Action.Kind,
		"agent", r.Action.ProducedBy,
		"seq", r.Action.Seq,
		"code", r.Code(),
		"error", r.Err)
}
