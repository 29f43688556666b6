// pkg/core/snapshot.go
package core

// Snapshot is the serialisable game state handed to observers and to the
// interpretation collaborator. Producing one never mutates the world.
type Snapshot struct {
	Tick        uint64             `json:"tick"`
	GameTime    float64            `json:"game_time"`
	Environment Environment        `json:"environment"`
	Vessels     []VesselStatus     `json:"ships"`
	Projectiles []ProjectileStatus `json:"projectiles"`
}

// VesselStatus is the full status of one vessel.
type VesselStatus struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Side           string          `json:"side"`
	Position       Position        `json:"position"`
	Heading        float64         `json:"heading"`
	Speed          float64         `json:"speed"`
	CommandedSpeed float64         `json:"commanded_speed"`
	MaxSpeed       float64         `json:"max_speed"`
	Hull           int             `json:"hull"`
	MaxHull        int             `json:"max_hull"`
	EngineHP       int             `json:"engine_hp"`
	Destroyed      bool            `json:"destroyed"`
	Modules        []ModuleStatus  `json:"modules"`
	Roles          map[Role]string `json:"roles"`
	Abandoned      bool            `json:"abandoned"`
}

// ModuleStatus is the status of one weapon mount.
type ModuleStatus struct {
	Mount           int     `json:"mount"`
	Name            string  `json:"name"`
	Kind            string  `json:"kind"`
	State           string  `json:"state"`
	Ammunition      int     `json:"ammunition"` // -1 when unlimited
	ReloadRemaining float64 `json:"reload_remaining"`
	HP              int     `json:"hp"`
}

// ProjectileStatus is the status of one projectile in flight.
type ProjectileStatus struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Origin    string   `json:"origin"`
	Target    string   `json:"target,omitempty"`
	Position  Position `json:"position"`
	Heading   float64  `json:"heading"`
	Speed     float64  `json:"speed"`
	Remaining float64  `json:"remaining"`
}

// Contact is what a vessel knows about another vessel.
type Contact struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Side     string   `json:"side"`
	Position Position `json:"position"`
	Heading  float64  `json:"heading"`
	Speed    float64  `json:"speed"`
	Bearing  float64  `json:"bearing"`
	Range    float64  `json:"range"`
}

// View is the snapshot as seen from one vessel.
type View struct {
	Tick        uint64             `json:"tick"`
	GameTime    float64            `json:"game_time"`
	Environment Environment        `json:"environment"`
	Own         VesselStatus       `json:"own"`
	Contacts    []Contact          `json:"contacts"`
	Projectiles []ProjectileStatus `json:"projectiles"`
}
