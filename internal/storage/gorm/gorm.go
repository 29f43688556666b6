// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine. It serves
// Postgres directly and is embedded by the SQLite backend.
package gormstorage

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/navalsim/internal/database"
	"github.com/OCAP2/navalsim/internal/logging"
	"github.com/OCAP2/navalsim/internal/model"
	"github.com/OCAP2/navalsim/internal/model/convert"
	"github.com/OCAP2/navalsim/internal/queue"
	"github.com/OCAP2/navalsim/internal/storage"
	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/rs/zerolog"

	"gorm.io/gorm"
)

// DefaultFlushInterval is the pause between writer cycles.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	// DB is used as is when set; otherwise Init connects to Postgres.
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	DBLogger      zerolog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	VesselStates    *queue.Queue[model.VesselState]
	FiredEvents     *queue.Queue[model.FiredEvent]
	HitEvents       *queue.Queue[model.HitEvent]
	CasualtyEvents  *queue.Queue[model.CasualtyEvent]
	RoleEvents      *queue.Queue[model.RoleEvent]
	MessageEvents   *queue.Queue[model.MessageEvent]
	ActionEvents    *queue.Queue[model.ActionEvent]
	DestroyedEvents *queue.Queue[model.DestroyedEvent]
}

func newQueues() *queues {
	return &queues{
		VesselStates:    queue.New[model.VesselState](),
		FiredEvents:     queue.New[model.FiredEvent](),
		HitEvents:       queue.New[model.HitEvent](),
		CasualtyEvents:  queue.New[model.CasualtyEvent](),
		RoleEvents:      queue.New[model.RoleEvent](),
		MessageEvents:   queue.New[model.MessageEvent](),
		ActionEvents:    queue.New[model.ActionEvent](),
		DestroyedEvents: queue.New[model.DestroyedEvent](),
	}
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps     Dependencies
	queues   *queues
	battleID atomic.Uint64
	lastTick atomic.Uint64

	// serialises writer cycles with explicit flushes
	writeMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

var _ storage.Backend = (*Backend)(nil)

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// DB returns the connection the backend writes to.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
// If no DB was injected via Dependencies, it creates its own postgres connection.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.DBLogger)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
	}

	if err := database.Migrate(b.deps.DB, b.deps.DBLogger); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	b.startDBWriter()
	return nil
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	b.Flush()
	return nil
}

// StartBattle inserts the battle and its vessels synchronously so the
// assigned ID can stamp every queued row.
func (b *Backend) StartBattle(battle *core.Battle) error {
	row := convert.CoreToBattle(*battle)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new battle: %w", err)
	}
	battle.ID = row.ID
	b.battleID.Store(uint64(row.ID))
	b.lastTick.Store(0)
	b.deps.LogManager.WriteLog("StartBattle", fmt.Sprintf("Battle %q recorded with ID %d", battle.Name, row.ID), "INFO")
	return nil
}

// SetBattleID sets the current battle ID for the DB writer (used by CLI tools).
func (b *Backend) SetBattleID(id uint) {
	b.battleID.Store(uint64(id))
}

// EndBattle flushes pending rows and stamps the end of the battle.
func (b *Backend) EndBattle() error {
	id := uint(b.battleID.Load())
	if id == 0 {
		return nil
	}
	b.Flush()

	now := time.Now().UTC()
	err := b.deps.DB.Model(&model.Battle{}).Where("id = ?", id).Updates(map[string]any{
		"end_tick": b.lastTick.Load(),
		"ended_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to finalise battle %d: %w", id, err)
	}
	return nil
}

// SetOutcome records the winning side of the current battle.
func (b *Backend) SetOutcome(side string) error {
	id := uint(b.battleID.Load())
	if id == 0 {
		return nil
	}
	return b.deps.DB.Model(&model.Battle{}).Where("id = ?", id).Update("winning_side", side).Error
}

func (b *Backend) seen(s core.Stamp) {
	for {
		cur := b.lastTick.Load()
		if s.Tick <= cur || b.lastTick.CompareAndSwap(cur, s.Tick) {
			return
		}
	}
}

// RecordVesselState converts and queues a vessel state.
func (b *Backend) RecordVesselState(s *core.VesselState) error {
	b.seen(s.Stamp)
	b.queues.VesselStates.Push(convert.CoreToVesselState(*s))
	return nil
}

// RecordFiredEvent converts and queues a fired event.
func (b *Backend) RecordFiredEvent(e *core.FiredEvent) error {
	b.seen(e.Stamp)
	b.queues.FiredEvents.Push(convert.CoreToFiredEvent(*e))
	return nil
}

// RecordHitEvent converts and queues a hit event.
func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	b.seen(e.Stamp)
	b.queues.HitEvents.Push(convert.CoreToHitEvent(*e))
	return nil
}

// RecordCasualtyEvent converts and queues a casualty event.
func (b *Backend) RecordCasualtyEvent(e *core.CasualtyEvent) error {
	b.seen(e.Stamp)
	b.queues.CasualtyEvents.Push(convert.CoreToCasualtyEvent(*e))
	return nil
}

// RecordRoleEvent converts and queues a role event.
func (b *Backend) RecordRoleEvent(e *core.RoleEvent) error {
	b.seen(e.Stamp)
	b.queues.RoleEvents.Push(convert.CoreToRoleEvent(*e))
	return nil
}

// RecordMessageEvent converts and queues a message event.
func (b *Backend) RecordMessageEvent(e *core.MessageEvent) error {
	b.seen(e.Stamp)
	b.queues.MessageEvents.Push(convert.CoreToMessageEvent(*e))
	return nil
}

// RecordActionEvent converts and queues an action event.
func (b *Backend) RecordActionEvent(e *core.ActionEvent) error {
	b.seen(e.Stamp)
	b.queues.ActionEvents.Push(convert.CoreToActionEvent(*e))
	return nil
}

// RecordDestroyedEvent converts and queues a destroyed event.
func (b *Backend) RecordDestroyedEvent(e *core.DestroyedEvent) error {
	b.seen(e.Stamp)
	b.queues.DestroyedEvents.Push(convert.CoreToDestroyedEvent(*e))
	return nil
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches go back on the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.Drain()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return
	}
	tx.Commit()
}

// Flush runs one writer cycle synchronously.
func (b *Backend) Flush() {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.deps.DB == nil {
		return
	}
	id := uint(b.battleID.Load())
	if id == 0 {
		return
	}
	log := b.deps.LogManager.WriteLog
	db := b.deps.DB

	writeQueue(db, b.queues.VesselStates, "vessel states", log, func(items []model.VesselState) {
		for i := range items {
			items[i].BattleID = id
		}
	})
	writeQueue(db, b.queues.FiredEvents, "fired events", log, func(items []model.FiredEvent) {
		for i := range items {
			items[i].BattleID = id
		}
	})
	writeQueue(db, b.queues.HitEvents, "hit events", log, func(items []model.HitEvent) {
		for i := range items {
			items[i].BattleID = id
		}
	})
	writeQueue(db, b.queues.CasualtyEvents, "casualty events", log, func(items []model.CasualtyEvent) {
		for i := range items {
			items[i].BattleID = id
		}
	})
	writeQueue(db, b.queues.RoleEvents, "role events", log, func(items []model.RoleEvent) {
		for i := range items {
			items[i].BattleID = id
		}
	})
	writeQueue(db, b.queues.MessageEvents, "message events", log, func(items []model.MessageEvent) {
		for i := range items {
			items[i].BattleID = id
		}
	})
	writeQueue(db, b.queues.ActionEvents, "action events", log, func(items []model.ActionEvent) {
		for i := range items {
			items[i].BattleID = id
		}
	})
	writeQueue(db, b.queues.DestroyedEvents, "destroyed events", log, func(items []model.DestroyedEvent) {
		for i := range items {
			items[i].BattleID = id
		}
	})
}

// startDBWriter starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriter() {
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				b.Flush()
			}
		}
	}()
}
