package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/OCAP2/navalsim/pkg/core"
)

// ErrOrderQueueFull is returned by Runner.Order when external orders are
// arriving faster than the loop consumes them.
var ErrOrderQueueFull = errors.New("order queue full")

// ScriptedOrder is an order issued before a given tick runs.
type ScriptedOrder struct {
	Tick   uint64    `json:"tick" yaml:"tick"`
	Vessel string    `json:"vessel" yaml:"vessel"`
	Role   core.Role `json:"role" yaml:"role"`
	Text   string    `json:"text" yaml:"text"`
	Issuer string    `json:"issuer,omitempty" yaml:"issuer"`
}

// RunnerConfig configures the run loop.
type RunnerConfig struct {
	// Interval is the wall-clock time between ticks. Zero runs flat out.
	Interval time.Duration
	// MaxTicks stops the loop after that many ticks. Zero means unbounded.
	MaxTicks uint64
	Script   []ScriptedOrder
	// StopWhenDecided ends the battle once a single side remains.
	StopWhenDecided bool
	Logger          *slog.Logger
}

// Runner drives a World at a fixed rate. All world access happens on the
// goroutine calling Run.
type Runner struct {
	world  *World
	cfg    RunnerConfig
	script []ScriptedOrder
	orders chan ScriptedOrder
	logger *slog.Logger
}

// NewRunner creates a run loop for w.
func NewRunner(w *World, cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = w.logger
	}
	script := append([]ScriptedOrder(nil), cfg.Script...)
	sort.SliceStable(script, func(i, j int) bool { return script[i].Tick < script[j].Tick })
	return &Runner{
		world:  w,
		cfg:    cfg,
		script: script,
		orders: make(chan ScriptedOrder, 64),
		logger: cfg.Logger,
	}
}

// Order queues an order from another goroutine. It is issued before the
// next tick.
func (r *Runner) Order(o ScriptedOrder) error {
	select {
	case r.orders <- o:
		return nil
	default:
		return fmt.Errorf("%s %s: %w", o.Vessel, o.Role, ErrOrderQueueFull)
	}
}

// Run ticks until ctx is cancelled, MaxTicks is reached, the battle is
// decided, or an invariant is violated. Only the last returns an error.
func (r *Runner) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if r.cfg.Interval > 0 {
		t := time.NewTicker(r.cfg.Interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		if r.cfg.MaxTicks > 0 && r.world.Tick() >= r.cfg.MaxTicks {
			r.logger.Info("tick limit reached", "ticks", r.world.Tick())
			return nil
		}
		if r.cfg.StopWhenDecided {
			if side, done := r.world.Decided(); done {
				r.logger.Info("battle decided", "side", side, "tick", r.world.Tick())
				return nil
			}
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		r.issueDue(ctx)
		if err := r.world.Step(ctx); err != nil {
			return err
		}
	}
}

func (r *Runner) issueDue(ctx context.Context) {
	next := r.world.Tick() + 1
	for len(r.script) > 0 && r.script[0].Tick <= next {
		r.issue(ctx, r.script[0])
		r.script = r.script[1:]
	}
	for {
		select {
		case o := <-r.orders:
			r.issue(ctx, o)
		default:
			return
		}
	}
}

func (r *Runner) issue(ctx context.Context, o ScriptedOrder) {
	if err := r.world.IssueOrder(o.Vessel, o.Role, o.Text, o.Issuer); err != nil {
		r.logger.WarnContext(ctx, "order not delivered",
			"vessel", o.Vessel,
			"role", o.Role,
			"code", core.Code(err),
			"error", err)
	}
}
