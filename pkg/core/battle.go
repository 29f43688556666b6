// pkg/core/battle.go
package core

import "time"

// Position is a WGS84 latitude/longitude pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Environment holds the static conditions of a battle.
type Environment struct {
	WindDirection  float64 `json:"wind_direction" yaml:"wind_direction"`
	WindSpeedKnots float64 `json:"wind_speed" yaml:"wind_speed"`
	SeaState       int     `json:"sea_state" yaml:"sea_state"`
	// Visibility in (0,1]; 1 is a clear day.
	Visibility float64 `json:"visibility" yaml:"visibility"`
}

// VesselInfo is the static description of a vessel taking part in a battle.
type VesselInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Side  string `json:"side"`
	Class string `json:"class"`
}

// Battle represents a recorded engagement.
type Battle struct {
	ID           uint          `json:"id"`
	Name         string        `json:"name"`
	StartedAt    time.Time     `json:"started_at"`
	TickDuration time.Duration `json:"tick_duration"`
	Seed         int64         `json:"seed"`
	Environment  Environment   `json:"environment"`
	Vessels      []VesselInfo  `json:"vessels"`
}
