package world

import (
	"encoding/json"
	"errors"
	"fmt"
)

// InvariantError aborts the tick. Dump is the JSON state at the moment the
// violation was detected.
type InvariantError struct {
	Tick uint64
	Err  error
	Dump []byte
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("tick %d: %v", e.Tick, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

func (w *World) checkInvariants() error {
	var errs []error
	for _, v := range w.vessels {
		if err := v.Roster().CheckInvariants(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", v.Name(), err))
		}
	}
	for _, p := range w.resolver.Active() {
		if !w.everSeen[p.Origin] {
			errs = append(errs, fmt.Errorf("projectile %s has unknown origin %q", p.ID, p.Origin))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	dump, err := json.Marshal(w.Snapshot())
	if err != nil {
		dump = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
	}
	return &InvariantError{Tick: w.tick, Err: errors.Join(errs...), Dump: dump}
}
