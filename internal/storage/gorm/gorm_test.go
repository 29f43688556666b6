package gormstorage

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/OCAP2/navalsim/internal/database"
	"github.com/OCAP2/navalsim/internal/model"
	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(1942, 11, 13, 1, 30, 0, 0, time.UTC)

func stampAt(tick uint64) core.Stamp {
	return core.Stamp{Tick: tick, GameTime: float64(tick) * 60, Time: start.Add(time.Duration(tick) * time.Minute)}
}

// newTestBackend creates a Backend over a private in-memory SQLite DB.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.GetSqliteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), zerolog.Nop())
	require.NoError(t, err)

	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testBattle() *core.Battle {
	return &core.Battle{
		Name:         "Savo",
		StartedAt:    start,
		TickDuration: time.Minute,
		Seed:         7,
		Environment:  core.Environment{Visibility: 0.3},
		Vessels: []core.VesselInfo{
			{ID: "a", Name: "Ayanami", Side: "blue", Class: "destroyer"},
			{ID: "b", Name: "Walke", Side: "red", Class: "destroyer"},
		},
	}
}

func TestStartBattle_AssignsID(t *testing.T) {
	b := newTestBackend(t)
	battle := testBattle()
	require.NoError(t, b.StartBattle(battle))
	assert.NotZero(t, battle.ID)

	var vessels []model.BattleVessel
	require.NoError(t, b.DB().Where("battle_id = ?", battle.ID).Find(&vessels).Error)
	assert.Len(t, vessels, 2)
}

func TestRecord_QueuesUntilFlush(t *testing.T) {
	b := newTestBackend(t)
	battle := testBattle()
	require.NoError(t, b.StartBattle(battle))

	require.NoError(t, b.RecordVesselState(&core.VesselState{Stamp: stampAt(1), VesselID: "a", Position: core.Position{Lat: -9.1, Lon: 159.9}, Hull: 1000}))
	require.NoError(t, b.RecordFiredEvent(&core.FiredEvent{Stamp: stampAt(1), ProjectileID: "p1", VesselID: "a", TargetID: "b"}))
	require.NoError(t, b.RecordHitEvent(&core.HitEvent{Stamp: stampAt(2), ProjectileID: "p1", ShooterID: "a", VictimID: "b", Damage: 400}))
	require.NoError(t, b.RecordCasualtyEvent(&core.CasualtyEvent{Stamp: stampAt(2), VesselID: "b", AgentID: "x", Roles: []core.Role{core.RoleCommander}}))
	require.NoError(t, b.RecordRoleEvent(&core.RoleEvent{Stamp: stampAt(2), VesselID: "b", Role: core.RoleCommander, Change: core.RoleVacated}))
	require.NoError(t, b.RecordMessageEvent(&core.MessageEvent{Stamp: stampAt(2), Channel: "b/bridge", Text: "hit!"}))
	require.NoError(t, b.RecordActionEvent(&core.ActionEvent{Stamp: stampAt(1), Kind: "fire_torpedo", Accepted: true, Code: core.CodeOK, Params: json.RawMessage(`{"target":"b"}`)}))
	require.NoError(t, b.RecordDestroyedEvent(&core.DestroyedEvent{Stamp: stampAt(3), VesselID: "b", KilledBy: "a"}))

	assert.Equal(t, 1, b.queues.VesselStates.Len())
	assert.Equal(t, 1, b.queues.DestroyedEvents.Len())

	b.Flush()
	assert.True(t, b.queues.VesselStates.Empty())

	counts := map[any]int64{}
	for _, m := range model.DatabaseModels[2:] {
		var n int64
		require.NoError(t, b.DB().Model(m).Where("battle_id = ?", battle.ID).Count(&n).Error)
		counts[fmt.Sprintf("%T", m)] = n
	}
	for k, n := range counts {
		assert.Equal(t, int64(1), n, k)
	}

	var state model.VesselState
	require.NoError(t, b.DB().First(&state).Error)
	xy, ok := state.Position.XY()
	require.True(t, ok)
	assert.Equal(t, 159.9, xy.X)
}

func TestFlush_WithoutBattleKeepsQueue(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.RecordVesselState(&core.VesselState{Stamp: stampAt(1), VesselID: "a"}))
	b.Flush()
	assert.Equal(t, 1, b.queues.VesselStates.Len())
}

func TestEndBattle_StampsEndTick(t *testing.T) {
	b := newTestBackend(t)
	battle := testBattle()
	require.NoError(t, b.StartBattle(battle))
	require.NoError(t, b.RecordVesselState(&core.VesselState{Stamp: stampAt(5), VesselID: "a"}))
	require.NoError(t, b.RecordVesselState(&core.VesselState{Stamp: stampAt(4), VesselID: "b"}))
	require.NoError(t, b.EndBattle())
	require.NoError(t, b.SetOutcome("blue"))

	var row model.Battle
	require.NoError(t, b.DB().First(&row, battle.ID).Error)
	assert.Equal(t, uint64(5), row.EndTick)
	assert.NotNil(t, row.EndedAt)
	assert.Equal(t, "blue", row.WinningSide)

	var n int64
	require.NoError(t, b.DB().Model(&model.VesselState{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestClose_Idempotent(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
}
