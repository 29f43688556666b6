package interpret

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/navalsim/internal/action"
	"golang.org/x/sync/semaphore"
)

// Sink receives interpretation outcomes. *dispatcher.Dispatcher satisfies it.
type Sink interface {
	Submit(a action.Action) (uint64, error)
	Reject(a action.Action, err error)
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Interpreter   Interpreter
	Sink          Sink
	MaxConcurrent int64
	Timeout       time.Duration
	Logger        *slog.Logger
}

// Runner interprets orders on background goroutines, at most
// MaxConcurrent at a time, each bounded by Timeout.
type Runner struct {
	interpreter Interpreter
	sink        Sink
	sem         *semaphore.Weighted
	timeout     time.Duration
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a Runner. Close must be called to release it.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		interpreter: cfg.Interpreter,
		sink:        cfg.Sink,
		sem:         semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Handle starts interpreting req and returns immediately.
func (r *Runner) Handle(req Request) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.interpret(req)
	}()
}

func (r *Runner) interpret(req Request) {
	pending := action.Action{Vessel: req.Vessel, Role: req.Role, ProducedBy: req.AgentID}

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		r.sink.Reject(pending, failed(req, err))
		return
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	a, err := r.interpreter.Interpret(ctx, req)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("interpretation timed out", "vessel", req.Vessel, "role", req.Role, "timeout", r.timeout)
		}
		r.sink.Reject(pending, failed(req, err))
		return
	}

	a = bind(req, a)
	seq, err := r.sink.Submit(a)
	if err != nil {
		r.logger.Error("failed to submit action", "vessel", req.Vessel, "role", req.Role, "kind", a.Kind, "error", err)
		return
	}
	r.logger.Debug("order interpreted",
		"vessel", req.Vessel,
		"role", req.Role,
		"kind", a.Kind,
		"seq", seq,
		"duration", time.Since(start))
}

// Wait blocks until every started interpretation has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close cancels outstanding interpretations and waits for them, or for ctx.
func (r *Runner) Close(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
