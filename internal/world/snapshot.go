package world

import (
	"fmt"

	"github.com/OCAP2/navalsim/pkg/core"
)

// Snapshot returns the full serialisable game state. It never mutates the
// world.
func (w *World) Snapshot() core.Snapshot {
	s := core.Snapshot{
		Tick:        w.tick,
		GameTime:    w.gameTime.Seconds(),
		Environment: w.cfg.Environment,
		Vessels:     make([]core.VesselStatus, 0, len(w.vessels)),
		Projectiles: w.resolver.Statuses(),
	}
	for _, v := range w.vessels {
		s.Vessels = append(s.Vessels, v.Status())
	}
	return s
}

// ForVessel returns the snapshot as seen from one vessel: its own status in
// full, every other vessel as a contact.
func (w *World) ForVessel(id string) (core.View, error) {
	own, ok := w.byID[id]
	if !ok {
		return core.View{}, fmt.Errorf("%q: %w", id, core.ErrUnknownVessel)
	}
	view := core.View{
		Tick:        w.tick,
		GameTime:    w.gameTime.Seconds(),
		Environment: w.cfg.Environment,
		Own:         own.Status(),
		Contacts:    make([]core.Contact, 0, len(w.vessels)-1),
		Projectiles: w.resolver.Statuses(),
	}
	for _, v := range w.vessels {
		if v.ID() == id {
			continue
		}
		view.Contacts = append(view.Contacts, v.Contact(own.Position()))
	}
	return view, nil
}
