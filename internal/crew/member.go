package crew

import (
	"time"

	"github.com/OCAP2/navalsim/pkg/core"
)

// Kind is the tagged variant of a crew agent. Behaviour is uniform across
// kinds; the kind only records what the agent was trained as.
type Kind string

const (
	KindCommander           Kind = "commander"
	KindWeaponsOfficer      Kind = "weapons_officer"
	KindHelmOfficer         Kind = "helm_officer"
	KindEngineeringOfficer  Kind = "engineering_officer"
	KindUnassignedLowerRank Kind = "unassigned_lower_rank"
)

// LowerRank is the rank given to sailors called up from the reserve.
const LowerRank = 1

// Order is a natural-language order addressed to a role.
type Order struct {
	Vessel   string        `json:"vessel"`
	Role     core.Role     `json:"role"`
	Text     string        `json:"text"`
	Issuer   string        `json:"issuer"`
	GameTime time.Duration `json:"game_time"`
}

// Agent is the capability every crew variant exposes. Authority lookups
// never go through the agent; they go through the Roster.
type Agent interface {
	ID() string
	Kind() Kind
	CurrentRole() (core.Role, bool)
	ReceiveOrder(Order)
}

// Member is a crew agent aboard one vessel.
type Member struct {
	id      string
	name    string
	rank    int
	kind    Kind
	station core.Station
	alive   bool
	arrival uint64
	roles   []core.Role
	orders  []Order
	// first global sequence visible on the bridge
	globalFrom uint64
}

var _ Agent = (*Member)(nil)

func (m *Member) ID() string            { return m.id }
func (m *Member) Name() string          { return m.name }
func (m *Member) Rank() int             { return m.rank }
func (m *Member) Kind() Kind            { return m.kind }
func (m *Member) Station() core.Station { return m.station }
func (m *Member) Alive() bool           { return m.alive }
func (m *Member) Arrival() uint64       { return m.arrival }

// CurrentRole returns the primary role held, if any.
func (m *Member) CurrentRole() (core.Role, bool) {
	if len(m.roles) == 0 {
		return "", false
	}
	return m.roles[0], true
}

// Roles returns every role held, primary first.
func (m *Member) Roles() []core.Role {
	out := make([]core.Role, len(m.roles))
	copy(out, m.roles)
	return out
}

// Holds reports whether the member holds the role.
func (m *Member) Holds(r core.Role) bool {
	for _, held := range m.roles {
		if held == r {
			return true
		}
	}
	return false
}

// ReceiveOrder records an order routed to this member.
func (m *Member) ReceiveOrder(o Order) {
	m.orders = append(m.orders, o)
}

// Orders returns the orders received so far.
func (m *Member) Orders() []Order {
	out := make([]Order, len(m.orders))
	copy(out, m.orders)
	return out
}

func (m *Member) dropRole(r core.Role) {
	for i, held := range m.roles {
		if held == r {
			m.roles = append(m.roles[:i], m.roles[i+1:]...)
			return
		}
	}
}
