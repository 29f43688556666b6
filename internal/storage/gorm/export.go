package gormstorage

import (
	"errors"
	"fmt"

	"github.com/OCAP2/navalsim/internal/model"
	"github.com/OCAP2/navalsim/internal/model/convert"
	"github.com/OCAP2/navalsim/internal/storage/memory"
	"github.com/OCAP2/navalsim/pkg/core"
	"gorm.io/gorm"
)

// ErrBattleNotFound is returned by LoadExport for an unknown battle ID.
var ErrBattleNotFound = errors.New("battle not found")

// rows loads every row of one table for a battle in recording order.
func rows[M any, C any](db *gorm.DB, battleID uint, conv func(M) C) ([]C, error) {
	var found []M
	err := db.Where("battle_id = ?", battleID).Order("tick ASC").Order("id ASC").Find(&found).Error
	if err != nil {
		return nil, err
	}
	out := make([]C, 0, len(found))
	for _, m := range found {
		out = append(out, conv(m))
	}
	return out, nil
}

// LoadExport rebuilds a recorded battle in the export format written by the
// memory backend.
func LoadExport(db *gorm.DB, battleID uint) (memory.Export, error) {
	var battle model.Battle
	err := db.Preload("Vessels").First(&battle, battleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return memory.Export{}, fmt.Errorf("battle %d: %w", battleID, ErrBattleNotFound)
	}
	if err != nil {
		return memory.Export{}, fmt.Errorf("load battle %d: %w", battleID, err)
	}

	export := memory.Export{
		Battle:  convert.BattleToCore(battle),
		EndTick: battle.EndTick,
	}

	states, err := rows(db, battleID, convert.VesselStateToCore)
	if err != nil {
		return memory.Export{}, fmt.Errorf("load vessel states: %w", err)
	}
	tracks := make(map[string]int)
	for _, v := range export.Battle.Vessels {
		tracks[v.ID] = len(export.Vessels)
		export.Vessels = append(export.Vessels, memory.VesselExport{VesselInfo: v, States: []core.VesselState{}})
	}
	for _, s := range states {
		i, ok := tracks[s.VesselID]
		if !ok {
			i = len(export.Vessels)
			tracks[s.VesselID] = i
			export.Vessels = append(export.Vessels, memory.VesselExport{States: []core.VesselState{}})
			export.Vessels[i].ID, export.Vessels[i].Name, export.Vessels[i].Side = s.VesselID, s.Name, s.Side
		}
		export.Vessels[i].States = append(export.Vessels[i].States, s)
		if s.GameTime > export.Duration {
			export.Duration = s.GameTime
		}
	}

	if export.Fired, err = rows(db, battleID, convert.FiredEventToCore); err != nil {
		return memory.Export{}, fmt.Errorf("load fired events: %w", err)
	}
	if export.Hits, err = rows(db, battleID, convert.HitEventToCore); err != nil {
		return memory.Export{}, fmt.Errorf("load hit events: %w", err)
	}
	if export.Casualties, err = rows(db, battleID, convert.CasualtyEventToCore); err != nil {
		return memory.Export{}, fmt.Errorf("load casualty events: %w", err)
	}
	if export.Roles, err = rows(db, battleID, convert.RoleEventToCore); err != nil {
		return memory.Export{}, fmt.Errorf("load role events: %w", err)
	}
	if export.Messages, err = rows(db, battleID, convert.MessageEventToCore); err != nil {
		return memory.Export{}, fmt.Errorf("load message events: %w", err)
	}
	if export.Actions, err = rows(db, battleID, convert.ActionEventToCore); err != nil {
		return memory.Export{}, fmt.Errorf("load action events: %w", err)
	}
	if export.Destroyed, err = rows(db, battleID, convert.DestroyedEventToCore); err != nil {
		return memory.Export{}, fmt.Errorf("load destroyed events: %w", err)
	}
	return export, nil
}
