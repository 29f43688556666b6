// Package memory keeps the battle record in memory and exports it as a
// single JSON document, optionally zstd compressed, when the battle ends.
package memory

import (
	"sync"

	"github.com/OCAP2/navalsim/internal/config"
	"github.com/OCAP2/navalsim/internal/storage"
	"github.com/OCAP2/navalsim/pkg/core"
)

// VesselRecord groups a vessel with all its time-series data
type VesselRecord struct {
	Vessel core.VesselInfo
	States []core.VesselState
}

// Backend stores battle data in memory and exports to JSON
type Backend struct {
	cfg    config.MemoryConfig
	battle *core.Battle

	vessels map[string]*VesselRecord
	order   []string

	firedEvents     []core.FiredEvent
	hitEvents       []core.HitEvent
	casualtyEvents  []core.CasualtyEvent
	roleEvents      []core.RoleEvent
	messageEvents   []core.MessageEvent
	actionEvents    []core.ActionEvent
	destroyedEvents []core.DestroyedEvent

	lastTick       uint64
	lastGameTime   float64
	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Uploadable = (*Backend)(nil)
)

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		vessels: make(map[string]*VesselRecord),
	}
}

func (b *Backend) Init() error  { return nil }
func (b *Backend) Close() error { return nil }

// StartBattle begins recording a new battle
func (b *Backend) StartBattle(battle *core.Battle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	battle.ID = b.idCounter
	b.battle = battle

	b.vessels = make(map[string]*VesselRecord)
	b.order = nil
	for _, v := range battle.Vessels {
		b.vessels[v.ID] = &VesselRecord{Vessel: v, States: make([]core.VesselState, 0)}
		b.order = append(b.order, v.ID)
	}
	b.firedEvents = nil
	b.hitEvents = nil
	b.casualtyEvents = nil
	b.roleEvents = nil
	b.messageEvents = nil
	b.actionEvents = nil
	b.destroyedEvents = nil
	b.lastTick = 0
	b.lastGameTime = 0
	b.lastExportPath = ""
	return nil
}

// EndBattle finalizes and exports the battle data
func (b *Backend) EndBattle() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.battle == nil {
		return nil
	}
	return b.exportJSON()
}

func (b *Backend) clock(s core.Stamp) {
	if s.Tick > b.lastTick {
		b.lastTick = s.Tick
		b.lastGameTime = s.GameTime
	}
}

// RecordVesselState appends a state sample to its vessel's track.
func (b *Backend) RecordVesselState(s *core.VesselState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clock(s.Stamp)
	rec, ok := b.vessels[s.VesselID]
	if !ok {
		rec = &VesselRecord{Vessel: core.VesselInfo{ID: s.VesselID, Name: s.Name, Side: s.Side}}
		b.vessels[s.VesselID] = rec
		b.order = append(b.order, s.VesselID)
	}
	rec.States = append(rec.States, *s)
	return nil
}

func (b *Backend) RecordFiredEvent(e *core.FiredEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock(e.Stamp)
	b.firedEvents = append(b.firedEvents, *e)
	return nil
}

func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock(e.Stamp)
	b.hitEvents = append(b.hitEvents, *e)
	return nil
}

func (b *Backend) RecordCasualtyEvent(e *core.CasualtyEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock(e.Stamp)
	b.casualtyEvents = append(b.casualtyEvents, *e)
	return nil
}

func (b *Backend) RecordRoleEvent(e *core.RoleEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock(e.Stamp)
	b.roleEvents = append(b.roleEvents, *e)
	return nil
}

func (b *Backend) RecordMessageEvent(e *core.MessageEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock(e.Stamp)
	b.messageEvents = append(b.messageEvents, *e)
	return nil
}

func (b *Backend) RecordActionEvent(e *core.ActionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock(e.Stamp)
	b.actionEvents = append(b.actionEvents, *e)
	return nil
}

func (b *Backend) RecordDestroyedEvent(e *core.DestroyedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock(e.Stamp)
	b.destroyedEvents = append(b.destroyedEvents, *e)
	return nil
}

// ExportedFilePath returns the file written by the last EndBattle.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// ExportMetadata describes the last exported battle.
func (b *Backend) ExportMetadata() storage.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.battle == nil {
		return storage.UploadMetadata{}
	}
	return storage.UploadMetadata{
		BattleName: b.battle.Name,
		Duration:   b.lastGameTime,
		Tag:        "naval",
	}
}
