// Package world owns every vessel, projectile and the global channel, and
// advances the simulation one tick at a time. It is the only writer of
// simulation state; everything else reads snapshots.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/OCAP2/navalsim/internal/combat"
	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/internal/dispatcher"
	"github.com/OCAP2/navalsim/internal/interpret"
	"github.com/OCAP2/navalsim/internal/vessel"
	"github.com/OCAP2/navalsim/pkg/core"
)

// GlobalChannel is the name of the channel shared by every vessel.
const GlobalChannel = "global"

// EventSink receives every event the world produces. Publish must not block.
type EventSink interface {
	Publish(e core.Event)
}

// Observer receives a read-only snapshot at the end of every tick.
type Observer interface {
	Observe(s core.Snapshot)
}

// OrderHandler starts interpretation of an order routed to a role holder.
type OrderHandler interface {
	Handle(req interpret.Request)
}

// Config configures a World.
type Config struct {
	TickDuration time.Duration
	Environment  core.Environment
	Seed         int64
	// Dice overrides the seeded random source used for combat rolls.
	Dice     combat.Dice
	NewID    func() string
	Logger   *slog.Logger
	Sink     EventSink
	Handler  OrderHandler
	WallTime func() time.Time
}

// World is the simulation authority.
type World struct {
	cfg    Config
	logger *slog.Logger
	dice   combat.Dice

	tick     uint64
	gameTime time.Duration
	// mirrors of tick and gameTime for readers on other goroutines
	tickView     atomic.Uint64
	gameTimeView atomic.Int64

	vessels  []*vessel.Vessel
	byID     map[string]*vessel.Vessel
	everSeen map[string]bool

	resolver   *combat.Resolver
	global     *crew.Channel
	dispatcher *dispatcher.Dispatcher
	observers  []Observer
}

// New creates a world from already built vessels. Every roster subscribes
// to the global channel.
func New(cfg Config, vessels []*vessel.Vessel, d *dispatcher.Dispatcher) (*World, error) {
	if cfg.TickDuration <= 0 {
		return nil, errors.New("tick duration must be positive")
	}
	if d == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WallTime == nil {
		cfg.WallTime = time.Now
	}
	if cfg.Environment.Visibility <= 0 {
		cfg.Environment.Visibility = 1
	}
	dice := cfg.Dice
	if dice == nil {
		dice = rand.New(rand.NewSource(cfg.Seed))
	}

	w := &World{
		cfg:        cfg,
		logger:     cfg.Logger,
		dice:       dice,
		byID:       make(map[string]*vessel.Vessel),
		everSeen:   make(map[string]bool),
		resolver:   combat.NewResolver(cfg.NewID),
		global:     crew.NewChannel(GlobalChannel, crew.ScopeGlobal),
		dispatcher: d,
	}
	for _, v := range vessels {
		if _, dup := w.byID[v.ID()]; dup {
			return nil, fmt.Errorf("duplicate vessel id %q", v.ID())
		}
		w.vessels = append(w.vessels, v)
		w.byID[v.ID()] = v
		w.everSeen[v.ID()] = true
		v.Roster().SubscribeGlobal(w.global)
	}
	return w, nil
}

// AddObserver registers a status observer.
func (w *World) AddObserver(o Observer) {
	w.observers = append(w.observers, o)
}

// Tick returns the number of completed ticks.
func (w *World) Tick() uint64 { return w.tick }

// GameTime returns simulated time since battle start.
func (w *World) GameTime() time.Duration { return w.gameTime }

// Clock is safe to call from any goroutine.
func (w *World) Clock() (uint64, time.Duration) {
	return w.tickView.Load(), time.Duration(w.gameTimeView.Load())
}

// Global returns the global channel.
func (w *World) Global() *crew.Channel { return w.global }

// Dispatcher returns the action queue feeding this world.
func (w *World) Dispatcher() *dispatcher.Dispatcher { return w.dispatcher }

// Vessel returns a live vessel.
func (w *World) Vessel(id string) (*vessel.Vessel, bool) {
	v, ok := w.byID[id]
	return v, ok
}

// Vessels returns the live vessels in creation order.
func (w *World) Vessels() []*vessel.Vessel {
	return append([]*vessel.Vessel(nil), w.vessels...)
}

// Roster returns the roster of a live vessel.
func (w *World) Roster(id string) (*crew.Roster, bool) {
	v, ok := w.byID[id]
	if !ok {
		return nil, false
	}
	return v.Roster(), true
}

var _ dispatcher.Target = (*World)(nil)

func (w *World) stamp() core.Stamp {
	return core.Stamp{Tick: w.tick, GameTime: w.gameTime.Seconds(), Time: w.cfg.WallTime()}
}

func (w *World) publish(e core.Event) {
	if w.cfg.Sink != nil {
		w.cfg.Sink.Publish(e)
	}
}

// Step advances the world by one tick:
//
//  1. clock
//  2. vessel physics and weapon timers
//  3. projectiles, impacts and damage
//  4. removal of destroyed vessels
//  5. crew processing (promotion, call-up)
//  6. action drain
//  7. invariant check
//  8. recording and observers
//
// Recoverable command errors never stop the tick. An *InvariantError does.
func (w *World) Step(ctx context.Context) error {
	w.tick++
	w.gameTime += w.cfg.TickDuration
	w.tickView.Store(w.tick)
	w.gameTimeView.Store(int64(w.gameTime))
	for _, v := range w.vessels {
		v.Roster().SetClock(w.tick, w.gameTime)
	}

	for _, v := range w.vessels {
		v.Update(w.cfg.TickDuration)
	}

	w.resolver.Advance(w.cfg.TickDuration, w.targets(), w.impact)

	w.removeDestroyed()

	for _, v := range w.vessels {
		w.roleEvents(v, v.Roster().ProcessCasualties())
	}

	for _, res := range w.dispatcher.Drain(w.tick, w) {
		w.report(res)
	}
	for _, v := range w.vessels {
		w.roleEvents(v, v.Roster().DrainEvents())
	}

	if err := w.checkInvariants(); err != nil {
		w.logger.ErrorContext(ctx, "invariant violated, halting", "tick", w.tick, "error", err)
		return err
	}

	stamp := w.stamp()
	for _, v := range w.vessels {
		w.publish(v.State(stamp))
	}
	snap := w.Snapshot()
	w.publish(snap)
	for _, o := range w.observers {
		o.Observe(snap)
	}
	return nil
}

func (w *World) targets() []combat.Target {
	out := make([]combat.Target, 0, len(w.vessels))
	for _, v := range w.vessels {
		out = append(out, v)
	}
	return out
}

func (w *World) removeDestroyed() {
	live := w.vessels[:0]
	for _, v := range w.vessels {
		if !v.Destroyed() {
			live = append(live, v)
			continue
		}
		v.Roster().Leave()
		delete(w.byID, v.ID())
		w.logger.Info("vessel destroyed", "vessel", v.Name(), "killedBy", v.KilledBy(), "tick", w.tick)
		w.publish(core.DestroyedEvent{Stamp: w.stamp(), VesselID: v.ID(), Name: v.Name(), KilledBy: v.KilledBy()})
	}
	for i := len(live); i < len(w.vessels); i++ {
		w.vessels[i] = nil
	}
	w.vessels = live
}

// Decided reports whether at most one side still has vessels afloat, and
// which side that is.
func (w *World) Decided() (string, bool) {
	sides := make(map[string]bool)
	last := ""
	for _, v := range w.vessels {
		sides[v.Side()] = true
		last = v.Side()
	}
	return last, len(sides) <= 1
}
