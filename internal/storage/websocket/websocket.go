// Package websocket streams the battle record to a live viewer.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/OCAP2/navalsim/internal/storage"
	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/OCAP2/navalsim/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	// StreamStatus also forwards the full per-tick snapshot.
	StreamStatus bool
	Logger       *slog.Logger
}

// Backend streams battle data over WebSocket to a viewer.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn     *connection
	cfg      Config
	battleID atomic.Uint64
	lastTick atomic.Uint64
}

var (
	_ storage.Backend        = (*Backend)(nil)
	_ storage.StatusObserver = (*Backend)(nil)
)

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

func (b *Backend) seen(s core.Stamp) {
	for {
		cur := b.lastTick.Load()
		if s.Tick <= cur || b.lastTick.CompareAndSwap(cur, s.Tick) {
			return
		}
	}
}

// StartBattle sends the battle header and waits for server ack. The
// server has no ID to hand back, so IDs are a local sequence.
func (b *Backend) StartBattle(battle *core.Battle) error {
	if battle.ID == 0 {
		battle.ID = uint(b.battleID.Add(1))
	} else {
		b.battleID.Store(uint64(battle.ID))
	}
	b.lastTick.Store(0)

	data, err := marshalEnvelope(streaming.TypeStartBattle, streaming.StartBattlePayload{Battle: battle})
	if err != nil {
		return err
	}

	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartBattle, ackTimeout)
}

// EndBattle sends end_battle and waits for server ack.
func (b *Backend) EndBattle() error {
	data, err := marshalEnvelope(streaming.TypeEndBattle, streaming.EndBattlePayload{
		BattleID: uint(b.battleID.Load()),
		EndTick:  b.lastTick.Load(),
	})
	if err == nil {
		err = b.conn.sendAndWait(data, streaming.TypeEndBattle, ackTimeout)
	}

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.mu.Unlock()

	return err
}

func (b *Backend) RecordVesselState(s *core.VesselState) error {
	b.seen(s.Stamp)
	return b.sendEnvelope(streaming.TypeVesselState, s)
}

func (b *Backend) RecordFiredEvent(e *core.FiredEvent) error {
	return b.sendEnvelope(streaming.TypeFiredEvent, e)
}

func (b *Backend) RecordHitEvent(e *core.HitEvent) error {
	return b.sendEnvelope(streaming.TypeHitEvent, e)
}

func (b *Backend) RecordCasualtyEvent(e *core.CasualtyEvent) error {
	return b.sendEnvelope(streaming.TypeCasualtyEvent, e)
}

func (b *Backend) RecordRoleEvent(e *core.RoleEvent) error {
	return b.sendEnvelope(streaming.TypeRoleEvent, e)
}

func (b *Backend) RecordMessageEvent(e *core.MessageEvent) error {
	return b.sendEnvelope(streaming.TypeMessageEvent, e)
}

func (b *Backend) RecordActionEvent(e *core.ActionEvent) error {
	return b.sendEnvelope(streaming.TypeActionEvent, e)
}

func (b *Backend) RecordDestroyedEvent(e *core.DestroyedEvent) error {
	b.seen(e.Stamp)
	return b.sendEnvelope(streaming.TypeDestroyedEvent, e)
}

// RecordStatus forwards the tick snapshot when StreamStatus is set.
func (b *Backend) RecordStatus(s *core.Snapshot) error {
	if !b.cfg.StreamStatus {
		return nil
	}
	return b.sendEnvelope(streaming.TypeStatus, s)
}
