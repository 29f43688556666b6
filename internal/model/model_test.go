package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Battle", &Battle{}, "battles"},
		{"BattleVessel", &BattleVessel{}, "battle_vessels"},
		{"VesselState", &VesselState{}, "vessel_states"},
		{"FiredEvent", &FiredEvent{}, "fired_events"},
		{"HitEvent", &HitEvent{}, "hit_events"},
		{"CasualtyEvent", &CasualtyEvent{}, "casualty_events"},
		{"RoleEvent", &RoleEvent{}, "role_events"},
		{"MessageEvent", &MessageEvent{}, "message_events"},
		{"ActionEvent", &ActionEvent{}, "action_events"},
		{"DestroyedEvent", &DestroyedEvent{}, "destroyed_events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModelsCoverEveryTable(t *testing.T) {
	assert.Len(t, DatabaseModels, 10)
	for _, m := range DatabaseModels {
		_, ok := m.(interface{ TableName() string })
		assert.True(t, ok, "%T", m)
	}
}
