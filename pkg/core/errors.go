// pkg/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Recoverable command errors. None of these halt the tick; they are reported
// back to whoever issued the order and logged.
var (
	ErrWeaponNotReady               = errors.New("weapon not ready")
	ErrOutOfAmmunition              = errors.New("out of ammunition")
	ErrModuleDisabled               = errors.New("module disabled")
	ErrRoleVacant                   = errors.New("role vacant")
	ErrActionRejectedStaleAuthority = errors.New("action rejected: stale authority")
	ErrInvalidActionParameters      = errors.New("invalid action parameters")
	ErrInterpretationFailed         = errors.New("interpretation failed")
	ErrActionQuotaExceeded          = errors.New("action quota exceeded for tick")

	ErrUnknownVessel = fmt.Errorf("%w: unknown vessel", ErrInvalidActionParameters)
)

// Stable codes reported alongside rejected actions.
const (
	CodeOK                  = "ok"
	CodeWeaponNotReady      = "weapon_not_ready"
	CodeOutOfAmmunition     = "out_of_ammunition"
	CodeModuleDisabled      = "module_disabled"
	CodeRoleVacant          = "role_vacant"
	CodeStaleAuthority      = "stale_authority"
	CodeInvalidParameters   = "invalid_parameters"
	CodeInterpretation      = "interpretation_failed"
	CodeQuotaExceeded       = "quota_exceeded"
	CodeUnclassifiedFailure = "error"
)

// Code maps an error onto its stable report code.
func Code(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInterpretationFailed):
		return CodeInterpretation
	case errors.Is(err, ErrWeaponNotReady):
		return CodeWeaponNotReady
	case errors.Is(err, ErrOutOfAmmunition):
		return CodeOutOfAmmunition
	case errors.Is(err, ErrModuleDisabled):
		return CodeModuleDisabled
	case errors.Is(err, ErrRoleVacant):
		return CodeRoleVacant
	case errors.Is(err, ErrActionRejectedStaleAuthority):
		return CodeStaleAuthority
	case errors.Is(err, ErrActionQuotaExceeded):
		return CodeQuotaExceeded
	case errors.Is(err, ErrInvalidActionParameters):
		return CodeInvalidParameters
	default:
		return CodeUnclassifiedFailure
	}
}
