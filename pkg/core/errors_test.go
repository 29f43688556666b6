package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, CodeOK},
		{"not ready", ErrWeaponNotReady, CodeWeaponNotReady},
		{"wrapped ammo", fmt.Errorf("mount 2: %w", ErrOutOfAmmunition), CodeOutOfAmmunition},
		{"disabled", ErrModuleDisabled, CodeModuleDisabled},
		{"vacant", ErrRoleVacant, CodeRoleVacant},
		{"stale", ErrActionRejectedStaleAuthority, CodeStaleAuthority},
		{"quota", ErrActionQuotaExceeded, CodeQuotaExceeded},
		{"unknown vessel", ErrUnknownVessel, CodeInvalidParameters},
		{"interpretation wraps params", fmt.Errorf("%w: %w", ErrInterpretationFailed, ErrInvalidActionParameters), CodeInterpretation},
		{"other", errors.New("boom"), CodeUnclassifiedFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("helm_officer")
	require.NoError(t, err)
	assert.Equal(t, RoleHelmOfficer, r)

	_, err = ParseRole("cook")
	assert.ErrorIs(t, err, ErrInvalidActionParameters)
}

func TestRoleDivisions(t *testing.T) {
	assert.Equal(t, []Station{StationGunnery, StationTorpedo}, RoleDivisions(RoleWeaponsOfficer))
	assert.Equal(t, []Station{StationEngineering}, RoleDivisions(RoleEngineeringOfficer))
	assert.Empty(t, RoleDivisions(RoleHelmOfficer))
}
