// pkg/core/role.go
package core

import "fmt"

// Role is a command position aboard a vessel. Authority to drive a module
// always flows through the role, never through a specific crew member.
type Role string

const (
	RoleCommander          Role = "commander"
	RoleWeaponsOfficer     Role = "weapons_officer"
	RoleHelmOfficer        Role = "helm_officer"
	RoleEngineeringOfficer Role = "engineering_officer"
)

// Roles lists every assignable role in chain-of-command order.
var Roles = []Role{
	RoleCommander,
	RoleWeaponsOfficer,
	RoleHelmOfficer,
	RoleEngineeringOfficer,
}

// ParseRole converts a string into a known Role.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidActionParameters, s)
}

// Station is where a crew member physically is aboard the vessel.
type Station string

const (
	StationBridge      Station = "bridge"
	StationGunnery     Station = "gunnery"
	StationTorpedo     Station = "torpedo"
	StationEngineering Station = "engineering"
)

// Divisions lists the below-bridge stations that own a division channel.
var Divisions = []Station{
	StationGunnery,
	StationTorpedo,
	StationEngineering,
}

// RoleDivisions returns the division stations a role holder is linked to.
func RoleDivisions(r Role) []Station {
	switch r {
	case RoleWeaponsOfficer:
		return []Station{StationGunnery, StationTorpedo}
	case RoleEngineeringOfficer:
		return []Station{StationEngineering}
	default:
		return nil
	}
}
