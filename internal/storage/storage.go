// Package storage defines the battle record backends and routes world
// events to them.
package storage

import (
	"fmt"

	"github.com/OCAP2/navalsim/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Battle management (assigns ID to the passed pointer)
	StartBattle(b *core.Battle) error
	EndBattle() error

	// State recording
	RecordVesselState(s *core.VesselState) error

	// Event recording
	RecordFiredEvent(e *core.FiredEvent) error
	RecordHitEvent(e *core.HitEvent) error
	RecordCasualtyEvent(e *core.CasualtyEvent) error
	RecordRoleEvent(e *core.RoleEvent) error
	RecordMessageEvent(e *core.MessageEvent) error
	RecordActionEvent(e *core.ActionEvent) error
	RecordDestroyedEvent(e *core.DestroyedEvent) error
}

// StatusObserver is an optional interface for backends that want the full
// per-tick snapshot, typically to stream it to a renderer.
type StatusObserver interface {
	RecordStatus(s *core.Snapshot) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to an after-action review server.
type Uploadable interface {
	ExportedFilePath() string
	ExportMetadata() UploadMetadata
}

// UploadMetadata describes an exported battle file.
type UploadMetadata struct {
	BattleName string
	Duration   float64 // seconds of game time
	Tag        string
}

// Record routes one event to the matching Backend method.
func Record(b Backend, e core.Event) error {
	switch ev := e.(type) {
	case core.VesselState:
		return b.RecordVesselState(&ev)
	case core.FiredEvent:
		return b.RecordFiredEvent(&ev)
	case core.HitEvent:
		return b.RecordHitEvent(&ev)
	case core.CasualtyEvent:
		return b.RecordCasualtyEvent(&ev)
	case core.RoleEvent:
		return b.RecordRoleEvent(&ev)
	case core.MessageEvent:
		return b.RecordMessageEvent(&ev)
	case core.ActionEvent:
		return b.RecordActionEvent(&ev)
	case core.DestroyedEvent:
		return b.RecordDestroyedEvent(&ev)
	case core.Snapshot:
		if o, ok := b.(StatusObserver); ok {
			return o.RecordStatus(&ev)
		}
		return nil
	default:
		return fmt.Errorf("unsupported event type %q", e.EventType())
	}
}
