// Package scenario loads battle definitions from YAML and builds the
// vessels and world configuration they describe.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/internal/propulsion"
	"github.com/OCAP2/navalsim/internal/vessel"
	"github.com/OCAP2/navalsim/internal/weapon"
	"github.com/OCAP2/navalsim/internal/world"
	"github.com/OCAP2/navalsim/pkg/core"
	"gopkg.in/yaml.v3"
)

// DestroyerClass is the class used by vessels that do not name one.
const DestroyerClass = "destroyer"

var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a complete battle definition.
type Scenario struct {
	Name         string                  `yaml:"name"`
	TickDuration time.Duration           `yaml:"tick_duration"`
	Seed         int64                   `yaml:"seed"`
	Environment  core.Environment        `yaml:"environment"`
	Classes      map[string]vessel.Class `yaml:"classes,omitempty"`
	Vessels      []VesselSpec            `yaml:"vessels"`
	Orders       []world.ScriptedOrder   `yaml:"orders,omitempty"`
}

// VesselSpec places one vessel and its crew.
type VesselSpec struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Side     string        `yaml:"side"`
	Class    string        `yaml:"class"`
	Position core.Position `yaml:"position"`
	Heading  float64       `yaml:"heading"`
	Speed    float64       `yaml:"speed"`
	Reserve  *int          `yaml:"reserve,omitempty"`
	Crew     []CrewSpec    `yaml:"crew,omitempty"`
}

// CrewSpec is one crew member. Role, when set, is assigned at start.
type CrewSpec struct {
	Name    string       `yaml:"name"`
	Rank    int          `yaml:"rank"`
	Kind    crew.Kind    `yaml:"kind"`
	Station core.Station `yaml:"station"`
	Role    core.Role    `yaml:"role,omitempty"`
}

// Load reads a scenario file. An empty path yields Default().
func Load(path string) (Scenario, error) {
	if strings.TrimSpace(path) == "" {
		s := Default()
		s.Normalize()
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	s, err := Parse(b)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes, normalizes and validates a YAML scenario.
func Parse(b []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Scenario{}, err
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// Normalize fills in defaults for anything left out.
func (s *Scenario) Normalize() {
	if s.TickDuration <= 0 {
		s.TickDuration = time.Minute
	}
	if s.Environment.Visibility <= 0 {
		s.Environment.Visibility = 1
	}
	if s.Classes == nil {
		s.Classes = make(map[string]vessel.Class)
	}
	if _, ok := s.Classes[DestroyerClass]; !ok {
		s.Classes[DestroyerClass] = Destroyer()
	}
	for i := range s.Vessels {
		v := &s.Vessels[i]
		if v.Class == "" {
			v.Class = DestroyerClass
		}
		if v.ID == "" {
			v.ID = fmt.Sprintf("vessel-%d", i+1)
		}
		if v.Name == "" {
			v.Name = v.ID
		}
		if len(v.Crew) == 0 {
			v.Crew = DefaultCrew()
		}
		for j := range v.Crew {
			c := &v.Crew[j]
			if c.Station == "" {
				c.Station = core.StationBridge
			}
			if c.Kind == "" {
				c.Kind = crew.KindUnassignedLowerRank
			}
			if c.Rank <= 0 {
				c.Rank = crew.LowerRank
			}
		}
	}
}

// Validate checks references between vessels, classes, crew and orders.
func (s Scenario) Validate() error {
	var errs []error
	if len(s.Vessels) == 0 {
		errs = append(errs, errors.New("no vessels"))
	}
	ids := make(map[string]bool)
	for _, v := range s.Vessels {
		if ids[v.ID] {
			errs = append(errs, fmt.Errorf("duplicate vessel id %q", v.ID))
		}
		ids[v.ID] = true
		if _, ok := s.Classes[v.Class]; !ok {
			errs = append(errs, fmt.Errorf("vessel %q: unknown class %q", v.ID, v.Class))
		}
		if v.Reserve != nil && *v.Reserve < 0 {
			errs = append(errs, fmt.Errorf("vessel %q: negative reserve", v.ID))
		}
		roles := make(map[core.Role]bool)
		for _, c := range v.Crew {
			if c.Role == "" {
				continue
			}
			if _, err := core.ParseRole(string(c.Role)); err != nil {
				errs = append(errs, fmt.Errorf("vessel %q crew %q: %w", v.ID, c.Name, err))
				continue
			}
			if roles[c.Role] {
				errs = append(errs, fmt.Errorf("vessel %q: role %s assigned twice", v.ID, c.Role))
			}
			roles[c.Role] = true
			if c.Station != core.StationBridge {
				errs = append(errs, fmt.Errorf("vessel %q crew %q: role holders start on the bridge", v.ID, c.Name))
			}
		}
	}
	for i, o := range s.Orders {
		if !ids[o.Vessel] {
			errs = append(errs, fmt.Errorf("order %d: unknown vessel %q", i, o.Vessel))
		}
		if _, err := core.ParseRole(string(o.Role)); err != nil {
			errs = append(errs, fmt.Errorf("order %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, errors.Join(errs...))
	}
	return nil
}

// Build creates the vessels, enlists their crew and assigns starting roles.
func (s Scenario) Build(newID func() string) ([]*vessel.Vessel, error) {
	out := make([]*vessel.Vessel, 0, len(s.Vessels))
	for _, spec := range s.Vessels {
		v, err := vessel.New(vessel.Config{
			ID:       spec.ID,
			Name:     spec.Name,
			Side:     spec.Side,
			Class:    s.Classes[spec.Class],
			Position: spec.Position,
			Heading:  spec.Heading,
			Speed:    spec.Speed,
			Reserve:  spec.Reserve,
			NewID:    newID,
		})
		if err != nil {
			return nil, fmt.Errorf("vessel %q: %w", spec.ID, err)
		}
		r := v.Roster()
		for _, c := range spec.Crew {
			m := r.Enlist(c.Name, c.Rank, c.Kind, c.Station)
			if c.Role == "" {
				continue
			}
			if err := r.Assign(c.Role, m.ID()); err != nil {
				return nil, fmt.Errorf("vessel %q: %w", spec.ID, err)
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// WorldConfig returns the scenario part of a world configuration.
func (s Scenario) WorldConfig() world.Config {
	return world.Config{
		TickDuration: s.TickDuration,
		Environment:  s.Environment,
		Seed:         s.Seed,
	}
}

// Info lists the vessels for the battle record.
func (s Scenario) Info() []core.VesselInfo {
	out := make([]core.VesselInfo, 0, len(s.Vessels))
	for _, v := range s.Vessels {
		out = append(out, core.VesselInfo{ID: v.ID, Name: v.Name, Side: v.Side, Class: s.Classes[v.Class].Name})
	}
	return out
}

// Destroyer returns the stock destroyer class.
func Destroyer() vessel.Class {
	gun := func(name string, arc float64) weapon.Spec {
		return weapon.Spec{
			Name:            name,
			Kind:            weapon.KindGun,
			Reload:          5 * time.Minute,
			ArcCenter:       arc,
			ArcWidth:        300,
			MaxRange:        18_000,
			ProjectileSpeed: 1_500,
			Damage:          50,
			HP:              50,
			Station:         core.StationGunnery,
		}
	}
	launcher := func(name string, arc float64) weapon.Spec {
		return weapon.Spec{
			Name:            name,
			Kind:            weapon.KindTorpedoLauncher,
			Reload:          90 * time.Second,
			Ammunition:      3,
			ArcCenter:       arc,
			ArcWidth:        140,
			MaxRange:        20_000,
			ProjectileSpeed: 36,
			Damage:          400,
			HP:              75,
			Station:         core.StationTorpedo,
		}
	}
	return vessel.Class{
		Name:     "Destroyer",
		Hull:     1_000,
		EngineHP: 200,
		Propulsion: propulsion.Spec{
			PowerKW:       50_000,
			LengthM:       118.5,
			DisplacementT: 1_750,
			MaxSpeedKnots: 38,
			TurnRate:      180,
		},
		Weapons: []weapon.Spec{
			gun("127mm mount 1", 0),
			gun("127mm mount 2", 180),
			gun("127mm mount 3", 180),
			launcher("610mm launcher 1", 90),
			launcher("610mm launcher 2", 270),
			launcher("610mm launcher 3", 90),
		},
	}
}

// DefaultCrew is a full bridge plus one sailor per division.
func DefaultCrew() []CrewSpec {
	return []CrewSpec{
		{Name: "Commander", Rank: 5, Kind: crew.KindCommander, Station: core.StationBridge, Role: core.RoleCommander},
		{Name: "Weapons Officer", Rank: 3, Kind: crew.KindWeaponsOfficer, Station: core.StationBridge, Role: core.RoleWeaponsOfficer},
		{Name: "Helm Officer", Rank: 3, Kind: crew.KindHelmOfficer, Station: core.StationBridge, Role: core.RoleHelmOfficer},
		{Name: "Engineering Officer", Rank: 3, Kind: crew.KindEngineeringOfficer, Station: core.StationBridge, Role: core.RoleEngineeringOfficer},
		{Name: "Gunner's Mate", Rank: 2, Kind: crew.KindUnassignedLowerRank, Station: core.StationGunnery},
		{Name: "Torpedoman", Rank: 2, Kind: crew.KindUnassignedLowerRank, Station: core.StationTorpedo},
		{Name: "Machinist", Rank: 2, Kind: crew.KindUnassignedLowerRank, Station: core.StationEngineering},
	}
}

// Default is a two-destroyer meeting engagement.
func Default() Scenario {
	return Scenario{
		Name:         "Destroyer duel",
		TickDuration: time.Minute,
		Seed:         1,
		Environment:  core.Environment{WindDirection: 45, WindSpeedKnots: 12, SeaState: 3, Visibility: 0.8},
		Vessels: []VesselSpec{
			{ID: "fubuki", Name: "Fubuki", Side: "blue", Position: core.Position{Lat: 35.6895, Lon: 139.6917}, Heading: 45, Speed: 18},
			{ID: "enemy", Name: "Enemy Destroyer", Side: "red", Position: core.Position{Lat: 35.7895, Lon: 139.7917}, Heading: 225, Speed: 18},
		},
	}
}
