package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/OCAP2/navalsim/internal/action"
	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/pkg/core"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// testWorld implements Target with one vessel.
type testWorld struct {
	rosters  map[string]*crew.Roster
	applied  []action.Action
	applyErr error
}

func (w *testWorld) Roster(vessel string) (*crew.Roster, bool) {
	r, ok := w.rosters[vessel]
	return r, ok
}

func (w *testWorld) Apply(a action.Action) error {
	if w.applyErr != nil {
		return w.applyErr
	}
	w.applied = append(w.applied, a)
	return nil
}

type crewIDs struct {
	commander, weapons, helm string
}

func newTestWorld(t *testing.T) (*testWorld, crewIDs) {
	t.Helper()
	n := 0
	r := crew.NewRoster(crew.RosterConfig{VesselID: "v1", VesselName: "Kagero", NewID: func() string {
		n++
		return fmt.Sprintf("a%d", n)
	}})
	cdr := r.Enlist("Cdr Ito", 5, crew.KindCommander, core.StationBridge)
	wo := r.Enlist("Lt Mori", 3, crew.KindWeaponsOfficer, core.StationBridge)
	helm := r.Enlist("Lt Sato", 3, crew.KindHelmOfficer, core.StationBridge)
	for role, m := range map[core.Role]*crew.Member{
		core.RoleCommander:      cdr,
		core.RoleWeaponsOfficer: wo,
		core.RoleHelmOfficer:    helm,
	} {
		if err := r.Assign(role, m.ID()); err != nil {
			t.Fatalf("assign %s: %v", role, err)
		}
	}
	return &testWorld{rosters: map[string]*crew.Roster{"v1": r}}, crewIDs{cdr.ID(), wo.ID(), helm.ID()}
}

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *testLogger) {
	logger := &testLogger{}

	d, err := New(logger, opts...)
	if err != nil {
		t.Fatalf("failed to create dispatcher: %v", err)
	}

	return d, logger
}

func act(role core.Role, kind action.Kind, agent, params string) action.Action {
	return action.Action{Vessel: "v1", Role: role, Kind: kind, ProducedBy: agent, Params: json.RawMessage(params)}
}

func TestDispatcher_SubmitAssignsSequence(t *testing.T) {
	d, _ := newTestDispatcher(t)

	for i := 1; i <= 3; i++ {
		seq, err := d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, "a3", `{"knots": 10}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seq != uint64(i) {
			t.Errorf("expected seq %d, got %d", i, seq)
		}
	}
	if d.Pending() != 3 {
		t.Errorf("expected 3 pending, got %d", d.Pending())
	}
}

func TestDispatcher_Capacity(t *testing.T) {
	d, _ := newTestDispatcher(t, Capacity(1))

	if _, err := d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, "a3", `{"knots": 10}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, "a3", `{"knots": 12}`))
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}

	// the refused submission does not consume a sequence number
	w, _ := newTestWorld(t)
	d.Drain(1, w)
	seq, _ := d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, "a3", `{"knots": 12}`))
	if seq != 2 {
		t.Errorf("expected seq 2, got %d", seq)
	}
}

func TestDispatcher_DrainAppliesInSubmissionOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)
	w, ids := newTestWorld(t)

	d.Submit(act(core.RoleHelmOfficer, action.KindSetHeading, ids.helm, `{"degrees": 90}`))
	d.Submit(act(core.RoleWeaponsOfficer, action.KindFireGuns, ids.weapons, `{"target_id": "v2"}`))

	results := d.Drain(7, w)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if !r.Accepted {
			t.Errorf("result %d rejected: %v", i, r.Err)
		}
		if r.Tick != 7 {
			t.Errorf("expected tick 7, got %d", r.Tick)
		}
	}
	if len(w.applied) != 2 || w.applied[0].Kind != action.KindSetHeading || w.applied[1].Seq != 2 {
		t.Errorf("unexpected apply order: %+v", w.applied)
	}
	if d.Pending() != 0 {
		t.Errorf("expected empty queue after drain, got %d", d.Pending())
	}
	if d.Drain(8, w) != nil {
		t.Error("expected nil results for an empty drain")
	}
}

func TestDispatcher_StaleAuthority(t *testing.T) {
	d, _ := newTestDispatcher(t)
	w, ids := newTestWorld(t)

	// weapons officer starts interpreting, then the role moves
	d.Submit(act(core.RoleWeaponsOfficer, action.KindFireGuns, ids.weapons, `{"target_id": "v2"}`))
	r := w.rosters["v1"]
	spare := r.Enlist("Ens Kato", 2, crew.KindUnassignedLowerRank, core.StationBridge)
	if err := r.Reassign(core.RoleWeaponsOfficer, spare.ID()); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	results := d.Drain(1, w)

	if len(results) != 1 || results[0].Accepted {
		t.Fatalf("expected one rejection, got %+v", results)
	}
	if !errors.Is(results[0].Err, core.ErrActionRejectedStaleAuthority) {
		t.Errorf("expected stale authority, got %v", results[0].Err)
	}
	if len(w.applied) != 0 {
		t.Error("stale action must not reach the world")
	}
}

func TestDispatcher_VacantRole(t *testing.T) {
	d, _ := newTestDispatcher(t)
	w, ids := newTestWorld(t)

	w.rosters["v1"].Abandon()
	w.rosters["v1"].MarkKIA(ids.helm)
	w.rosters["v1"].ProcessCasualties()
	d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, ids.commander, `{"knots": 5}`))
	d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, ids.helm, `{"knots": 5}`))

	results := d.Drain(1, w)
	if !errors.Is(results[0].Err, core.ErrRoleVacant) {
		t.Errorf("expected role vacant, got %v", results[0].Err)
	}
	if results[0].Code() != core.CodeRoleVacant {
		t.Errorf("expected code %s, got %s", core.CodeRoleVacant, results[0].Code())
	}
	// the dead helmsman's own order is stale, not merely vacant
	if !errors.Is(results[1].Err, core.ErrActionRejectedStaleAuthority) {
		t.Errorf("expected stale authority, got %v", results[1].Err)
	}
	if len(w.applied) != 0 {
		t.Error("no action may reach the world")
	}
}

func TestDispatcher_Validation(t *testing.T) {
	tests := []struct {
		name string
		a    func(ids crewIDs) action.Action
		want error
	}{
		{
			name: "unknown vessel",
			a: func(ids crewIDs) action.Action {
				a := act(core.RoleHelmOfficer, action.KindSetSpeed, ids.helm, `{"knots": 5}`)
				a.Vessel = "v9"
				return a
			},
			want: core.ErrUnknownVessel,
		},
		{
			name: "kind not permitted",
			a: func(ids crewIDs) action.Action {
				return act(core.RoleHelmOfficer, action.KindFireGuns, ids.helm, `{"target_id": "v2"}`)
			},
			want: core.ErrInvalidActionParameters,
		},
		{
			name: "bad params",
			a: func(ids crewIDs) action.Action {
				return act(core.RoleHelmOfficer, action.KindSetSpeed, ids.helm, `{"knots": "fast"}`)
			},
			want: core.ErrInvalidActionParameters,
		},
		{
			name: "wrong producer",
			a: func(ids crewIDs) action.Action {
				return act(core.RoleHelmOfficer, action.KindSetSpeed, ids.weapons, `{"knots": 5}`)
			},
			want: core.ErrActionRejectedStaleAuthority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newTestDispatcher(t)
			w, ids := newTestWorld(t)
			d.Submit(tt.a(ids))

			results := d.Drain(1, w)
			if len(results) != 1 || !errors.Is(results[0].Err, tt.want) {
				t.Errorf("expected %v, got %+v", tt.want, results)
			}
			if len(w.applied) != 0 {
				t.Error("rejected action must not be applied")
			}
		})
	}
}

func TestDispatcher_RoleQuota(t *testing.T) {
	d, _ := newTestDispatcher(t)
	w, ids := newTestWorld(t)

	d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, ids.helm, `{"knots": 5}`))
	d.Submit(act(core.RoleHelmOfficer, action.KindSetHeading, ids.helm, `{"degrees": 45}`))

	results := d.Drain(1, w)
	if !results[0].Accepted {
		t.Errorf("first action rejected: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, core.ErrActionQuotaExceeded) {
		t.Errorf("expected quota exceeded, got %v", results[1].Err)
	}

	// quota resets every tick
	d.Submit(act(core.RoleHelmOfficer, action.KindSetHeading, ids.helm, `{"degrees": 45}`))
	if r := d.Drain(2, w); !r[0].Accepted {
		t.Errorf("expected acceptance on next tick, got %v", r[0].Err)
	}
}

func TestDispatcher_MultiplexedAgentModuleQuota(t *testing.T) {
	d, _ := newTestDispatcher(t)
	w, ids := newTestWorld(t)
	r := w.rosters["v1"]
	r.MarkKIA(ids.weapons)
	if err := r.Multiplex(core.RoleWeaponsOfficer, ids.helm); err != nil {
		t.Fatalf("multiplex: %v", err)
	}

	d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, ids.helm, `{"knots": 5}`))
	d.Submit(act(core.RoleWeaponsOfficer, action.KindFireGuns, ids.helm, `{"target_id": "v2"}`))
	d.Submit(act(core.RoleWeaponsOfficer, action.KindReport, ids.helm, `{"text": "guns silent"}`))

	results := d.Drain(1, w)
	if !results[0].Accepted {
		t.Errorf("helm action rejected: %v", results[0].Err)
	}
	if !errors.Is(results[1].Err, core.ErrActionQuotaExceeded) {
		t.Errorf("expected quota exceeded for second module action, got %v", results[1].Err)
	}
	if !results[2].Accepted {
		t.Errorf("report is not module-affecting and should pass: %v", results[2].Err)
	}
}

func TestDispatcher_ApplyErrorDoesNotConsumeQuota(t *testing.T) {
	d, _ := newTestDispatcher(t)
	w, ids := newTestWorld(t)
	w.applyErr = fmt.Errorf("mount 0: %w", core.ErrWeaponNotReady)

	d.Submit(act(core.RoleWeaponsOfficer, action.KindFireGuns, ids.weapons, `{"target_id": "v2"}`))
	results := d.Drain(1, w)
	if results[0].Code() != core.CodeWeaponNotReady {
		t.Errorf("expected weapon_not_ready, got %s", results[0].Code())
	}

	w.applyErr = nil
	d.Submit(act(core.RoleWeaponsOfficer, action.KindFireGuns, ids.weapons, `{"target_id": "v2"}`))
	d.Submit(act(core.RoleWeaponsOfficer, action.KindFireGuns, ids.weapons, `{"target_id": "v2"}`))
	results = d.Drain(2, w)
	if !results[0].Accepted || results[1].Accepted {
		t.Errorf("expected accept then quota, got %+v", results)
	}
}

func TestDispatcher_RejectReportsInterpretationFailure(t *testing.T) {
	d, logger := newTestDispatcher(t)
	w, ids := newTestWorld(t)

	d.Reject(act(core.RoleHelmOfficer, "", ids.helm, ""), errors.New("timeout"))
	if d.Pending() != 0 {
		t.Error("failed interpretations must not reach the action queue")
	}

	results := d.Drain(3, w)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Code() != core.CodeInterpretation || results[0].Tick != 3 {
		t.Errorf("unexpected result %+v", results[0])
	}
	if logger.count() == 0 {
		t.Error("expected the rejection to be logged")
	}
}

func TestDispatcher_ConcurrentSubmit(t *testing.T) {
	d, _ := newTestDispatcher(t)
	w, ids := newTestWorld(t)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Submit(act(core.RoleCommander, action.KindReport, ids.commander, `{"text": "x"}`))
		}()
	}
	wg.Wait()

	results := d.Drain(1, w)
	if len(results) != 100 {
		t.Fatalf("expected 100 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Action.Seq != uint64(i+1) {
			t.Fatalf("expected seq %d at position %d, got %d", i+1, i, r.Action.Seq)
		}
	}
}

func TestDispatcher_Logged(t *testing.T) {
	d, logger := newTestDispatcher(t, Logged())
	w, ids := newTestWorld(t)

	d.Submit(act(core.RoleHelmOfficer, action.KindSetSpeed, ids.helm, `{"knots": 5}`))
	d.Drain(1, w)

	if logger.count() != 1 {
		t.Errorf("expected 1 debug message, got %d", logger.count())
	}
}
