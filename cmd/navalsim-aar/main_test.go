package main

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/OCAP2/navalsim/internal/database"
	gormstorage "github.com/OCAP2/navalsim/internal/storage/gorm"
	"github.com/OCAP2/navalsim/internal/storage/memory"
	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func recordedDB(t *testing.T) (*gorm.DB, uint) {
	t.Helper()
	db, err := database.GetSqliteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), zerolog.Nop())
	require.NoError(t, err)

	b := gormstorage.New(gormstorage.Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	battle := &core.Battle{
		Name:      "Surigao Strait",
		StartedAt: time.Date(1944, 10, 25, 3, 0, 0, 0, time.UTC),
		Vessels:   []core.VesselInfo{{ID: "a", Name: "Shigure", Side: "blue"}},
	}
	require.NoError(t, b.StartBattle(battle))
	require.NoError(t, b.RecordVesselState(&core.VesselState{Stamp: core.Stamp{Tick: 1, GameTime: 60}, VesselID: "a", Hull: 1000}))
	require.NoError(t, b.EndBattle())
	require.NoError(t, b.SetOutcome("blue"))
	return db, battle.ID
}

func TestListBattles(t *testing.T) {
	db, id := recordedDB(t)
	var out bytes.Buffer
	require.NoError(t, listBattles(db, &out))
	assert.Contains(t, out.String(), "Surigao Strait")
	assert.Contains(t, out.String(), fmt.Sprintf("%d", id))
	assert.Contains(t, out.String(), "blue")
}

func TestExportBattles(t *testing.T) {
	db, id := recordedDB(t)
	dir := t.TempDir()

	paths, err := exportBattles(db, []string{fmt.Sprint(id)}, dir, true)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "19441025_030000.json.zst")

	export, err := memory.ReadExport(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "Surigao Strait", export.Battle.Name)
	require.Len(t, export.Vessels, 1)
	assert.Len(t, export.Vessels[0].States, 1)
}

func TestExportBattles_Errors(t *testing.T) {
	db, _ := recordedDB(t)

	_, err := exportBattles(db, []string{"abc"}, t.TempDir(), false)
	assert.Error(t, err)

	_, err = exportBattles(db, []string{"999"}, t.TempDir(), false)
	assert.ErrorIs(t, err, gormstorage.ErrBattleNotFound)
}

func TestOpenDB_MissingSQLiteFile(t *testing.T) {
	_, err := openDB("/nonexistent/battles.db", zerolog.Nop())
	assert.Error(t, err)
}
