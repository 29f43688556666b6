// Package crew holds the per-vessel chain of command: who holds which role,
// who can see which channel, and how authority moves after casualties.
package crew

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/google/uuid"
)

// ErrInvariant is returned by CheckInvariants when the roster is corrupt.
var ErrInvariant = errors.New("crew invariant violated")

// Roster event kinds. Role changes reuse the core role change names.
const EventKilled = "killed"

// Event records a change of authority or a casualty.
type Event struct {
	Kind   string
	Role   core.Role
	Agent  string
	Reason string
}

// ChannelView is the part of one channel an agent can see.
type ChannelView struct {
	Channel  string    `json:"channel"`
	Scope    Scope     `json:"scope"`
	Messages []Message `json:"messages"`
}

// RosterConfig configures a new roster.
type RosterConfig struct {
	VesselID   string
	VesselName string
	// Reserve caps the lower-deck sailors that can be called up to fill a
	// vacant role when nobody on the bridge is free. Nil means no cap.
	Reserve *int
	NewID   func() string
}

// UnlimitedReserve is what Reserve reports for a roster without a cap.
const UnlimitedReserve = -1

// FiniteReserve caps a roster's reserve at n sailors.
func FiniteReserve(n int) *int {
	return &n
}

// Roster is the authority table of one vessel. It is the only writer of
// role assignments and channel membership for that vessel.
type Roster struct {
	vesselID   string
	vesselName string
	newID      func() string

	members []*Member
	byID    map[string]*Member
	holders map[core.Role]string
	// every agent that has held a role, for stale authority checks
	formerHolders map[core.Role]map[string]bool
	// roles held under a multiplex directive, by agent
	multiplexed map[string]map[core.Role]bool

	vacancies []core.Role
	abandoned bool
	reserve   int
	called    int
	arrivals  uint64

	bridge    *Channel
	divisions map[core.Station]*Channel
	global    *Channel

	tick     uint64
	gameTime time.Duration
	events   []Event
}

// NewRoster creates an empty roster with its bridge and division channels.
func NewRoster(cfg RosterConfig) *Roster {
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	reserve := UnlimitedReserve
	if cfg.Reserve != nil {
		reserve = max(*cfg.Reserve, 0)
	}
	r := &Roster{
		vesselID:      cfg.VesselID,
		vesselName:    cfg.VesselName,
		newID:         cfg.NewID,
		byID:          make(map[string]*Member),
		holders:       make(map[core.Role]string),
		formerHolders: make(map[core.Role]map[string]bool),
		multiplexed:   make(map[string]map[core.Role]bool),
		reserve:       reserve,
		bridge:        NewChannel(cfg.VesselName+"/bridge", ScopeBridge),
		divisions:     make(map[core.Station]*Channel),
	}
	for _, d := range core.Divisions {
		r.divisions[d] = NewChannel(fmt.Sprintf("%s/%s", cfg.VesselName, d), ScopeDivision)
	}
	return r
}

func (r *Roster) VesselID() string { return r.vesselID }
func (r *Roster) Bridge() *Channel { return r.bridge }
func (r *Roster) Abandoned() bool  { return r.abandoned }
func (r *Roster) Global() *Channel { return r.global }

func (r *Roster) Vacancies() []core.Role {
	return append([]core.Role(nil), r.vacancies...)
}

// Reserve returns the sailors left to call up, or UnlimitedReserve.
func (r *Roster) Reserve() int { return r.reserve }

func (r *Roster) Clock() (uint64, time.Duration) { return r.tick, r.gameTime }

// Division returns the channel of a division station.
func (r *Roster) Division(s core.Station) (*Channel, bool) {
	c, ok := r.divisions[s]
	return c, ok
}

// SetClock stamps subsequent messages with the given tick and game time.
func (r *Roster) SetClock(tick uint64, gameTime time.Duration) {
	r.tick = tick
	r.gameTime = gameTime
}

// SubscribeGlobal links the world-owned global channel. Bridge members see
// global traffic from the later of subscription and their bridge arrival.
func (r *Roster) SubscribeGlobal(c *Channel) {
	r.global = c
	c.Join(r.vesselID)
	for _, m := range r.members {
		if m.alive && m.station == core.StationBridge {
			m.globalFrom = c.nextSeq()
		}
	}
}

// Enlist adds a living member at the given station.
func (r *Roster) Enlist(name string, rank int, kind Kind, station core.Station) *Member {
	r.arrivals++
	m := &Member{
		id:      r.newID(),
		name:    name,
		rank:    rank,
		kind:    kind,
		station: station,
		alive:   true,
		arrival: r.arrivals,
	}
	r.members = append(r.members, m)
	r.byID[m.id] = m
	r.arrive(m, station)
	return m
}

func (r *Roster) arrive(m *Member, station core.Station) {
	m.station = station
	if station == core.StationBridge {
		r.bridge.Join(m.id)
		if r.global != nil {
			m.globalFrom = r.global.nextSeq()
		}
		return
	}
	if c, ok := r.divisions[station]; ok {
		c.Join(m.id)
	}
}

// Members returns every member, living or not, in enlistment order.
func (r *Roster) Members() []*Member {
	return append([]*Member(nil), r.members...)
}

// Member looks up a member by ID.
func (r *Roster) Member(id string) (*Member, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// AtStation returns the living members at a station.
func (r *Roster) AtStation(s core.Station) []*Member {
	var out []*Member
	for _, m := range r.members {
		if m.alive && m.station == s {
			out = append(out, m)
		}
	}
	return out
}

// Holder returns the living holder of a role.
func (r *Roster) Holder(role core.Role) (*Member, bool) {
	id, ok := r.holders[role]
	if !ok {
		return nil, false
	}
	m := r.byID[id]
	if m == nil || !m.alive {
		return nil, false
	}
	return m, true
}

// Holders returns the current role table.
func (r *Roster) Holders() map[core.Role]string {
	out := make(map[core.Role]string, len(r.holders))
	for role := range r.holders {
		if m, ok := r.Holder(role); ok {
			out[role] = m.id
		}
	}
	return out
}

// Authorize checks that agentID currently holds role. An agent that is
// dead or once held the role is stale even while the role is vacant.
func (r *Roster) Authorize(role core.Role, agentID string) error {
	h, ok := r.Holder(role)
	if !ok {
		if m, known := r.byID[agentID]; known && (!m.alive || r.formerHolders[role][agentID]) {
			return fmt.Errorf("%s %s no longer held by %s: %w",
				r.vesselName, role, agentID, core.ErrActionRejectedStaleAuthority)
		}
		return fmt.Errorf("%s %s: %w", r.vesselName, role, core.ErrRoleVacant)
	}
	if h.id != agentID {
		return fmt.Errorf("%s %s now held by %s, not %s: %w",
			r.vesselName, role, h.id, agentID, core.ErrActionRejectedStaleAuthority)
	}
	return nil
}

// RouteOrder hands an order to the living holder of its role.
func (r *Roster) RouteOrder(o Order) (*Member, error) {
	h, ok := r.Holder(o.Role)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", r.vesselName, o.Role, core.ErrRoleVacant)
	}
	h.ReceiveOrder(o)
	return h, nil
}

func (r *Roster) bridgeMember(id string) (*Member, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown crew member %q", core.ErrInvalidActionParameters, id)
	}
	if !m.alive {
		return nil, fmt.Errorf("%w: %s is dead", core.ErrInvalidActionParameters, m.name)
	}
	if m.station != core.StationBridge {
		return nil, fmt.Errorf("%w: %s is not on the bridge", core.ErrInvalidActionParameters, m.name)
	}
	return m, nil
}

// Assign gives a vacant role to a bridge member who holds no other role.
func (r *Roster) Assign(role core.Role, agentID string) error {
	m, err := r.bridgeMember(agentID)
	if err != nil {
		return err
	}
	if h, ok := r.Holder(role); ok {
		return fmt.Errorf("%w: %s already held by %s", core.ErrInvalidActionParameters, role, h.name)
	}
	if len(m.roles) > 0 {
		return fmt.Errorf("%w: %s already holds %s", core.ErrInvalidActionParameters, m.name, m.roles[0])
	}
	r.grant(role, m, core.RoleAssigned, "assigned")
	return nil
}

// Reassign is the commander's directive moving a role to a free bridge
// member, relieving the current holder if there is one.
func (r *Roster) Reassign(role core.Role, agentID string) error {
	m, err := r.bridgeMember(agentID)
	if err != nil {
		return err
	}
	if len(m.roles) > 0 {
		return fmt.Errorf("%w: %s already holds %s", core.ErrInvalidActionParameters, m.name, m.roles[0])
	}
	if h, ok := r.Holder(role); ok {
		r.revoke(role, h)
	}
	r.grant(role, m, core.RoleAssigned, "reassigned")
	return nil
}

// Multiplex is the commander's explicit directive letting one bridge member
// hold a vacant role in addition to the role it already holds.
func (r *Roster) Multiplex(role core.Role, agentID string) error {
	m, err := r.bridgeMember(agentID)
	if err != nil {
		return err
	}
	if h, ok := r.Holder(role); ok {
		return fmt.Errorf("%w: %s already held by %s", core.ErrInvalidActionParameters, role, h.name)
	}
	if len(m.roles) > 0 {
		if r.multiplexed[m.id] == nil {
			r.multiplexed[m.id] = make(map[core.Role]bool)
		}
		r.multiplexed[m.id][role] = true
	}
	r.grant(role, m, core.RoleMultiplexed, "multiplex directive")
	return nil
}

// Summon moves a division member to the bridge. Its bridge context starts
// at arrival.
func (r *Roster) Summon(agentID string) error {
	m, ok := r.byID[agentID]
	if !ok {
		return fmt.Errorf("%w: unknown crew member %q", core.ErrInvalidActionParameters, agentID)
	}
	if !m.alive {
		return fmt.Errorf("%w: %s is dead", core.ErrInvalidActionParameters, m.name)
	}
	if m.station == core.StationBridge {
		return fmt.Errorf("%w: %s is already on the bridge", core.ErrInvalidActionParameters, m.name)
	}
	if c, ok := r.divisions[m.station]; ok {
		c.Leave(m.id)
	}
	r.arrivals++
	m.arrival = r.arrivals
	r.arrive(m, core.StationBridge)
	return nil
}

// Abandon sets the abandonment directive. No role is reassigned afterwards.
func (r *Roster) Abandon() {
	r.abandoned = true
}

// MarkKIA kills a member and vacates every role it held.
func (r *Roster) MarkKIA(agentID string) []core.Role {
	m, ok := r.byID[agentID]
	if !ok || !m.alive {
		return nil
	}
	m.alive = false
	vacated := m.Roles()
	for _, role := range vacated {
		delete(r.holders, role)
		r.vacancies = append(r.vacancies, role)
		r.events = append(r.events, Event{Kind: core.RoleVacated, Role: role, Agent: m.id, Reason: "killed in action"})
	}
	m.roles = nil
	delete(r.multiplexed, m.id)

	r.bridge.Leave(m.id)
	for _, c := range r.divisions {
		c.Leave(m.id)
	}
	r.events = append(r.events, Event{Kind: EventKilled, Agent: m.id})
	return vacated
}

// ProcessCasualties runs the crew-processing phase: every role vacated
// since the last phase is filled by promotion, or by calling up a sailor
// from the reserve, unless the ship has been abandoned. It returns the
// events produced since the previous call.
func (r *Roster) ProcessCasualties() []Event {
	pending := r.vacancies
	r.vacancies = nil

	for _, role := range pending {
		if _, held := r.Holder(role); held {
			continue
		}
		if r.abandoned {
			continue
		}
		if c := r.promotionCandidate(); c != nil {
			r.grant(role, c, core.RoleAssigned, "promoted")
			continue
		}
		if r.reserve != 0 {
			if r.reserve > 0 {
				r.reserve--
			}
			r.called++
			m := r.Enlist(fmt.Sprintf("Seaman %d", r.called), LowerRank, KindUnassignedLowerRank, core.StationBridge)
			r.grant(role, m, core.RoleSpawned, "called up from reserve")
		}
	}

	return r.DrainEvents()
}

// DrainEvents returns the events recorded since the last call without
// filling vacancies.
func (r *Roster) DrainEvents() []Event {
	events := r.events
	r.events = nil
	return events
}

// promotionCandidate is the most senior living bridge member without a
// role: highest rank, then earliest arrival, then ID.
func (r *Roster) promotionCandidate() *Member {
	var free []*Member
	for _, m := range r.AtStation(core.StationBridge) {
		if len(m.roles) == 0 {
			free = append(free, m)
		}
	}
	if len(free) == 0 {
		return nil
	}
	sort.Slice(free, func(i, j int) bool {
		a, b := free[i], free[j]
		if a.rank != b.rank {
			return a.rank > b.rank
		}
		if a.arrival != b.arrival {
			return a.arrival < b.arrival
		}
		return a.id < b.id
	})
	return free[0]
}

func (r *Roster) grant(role core.Role, m *Member, kind, reason string) {
	r.holders[role] = m.id
	if r.formerHolders[role] == nil {
		r.formerHolders[role] = make(map[string]bool)
	}
	r.formerHolders[role][m.id] = true
	m.roles = append(m.roles, role)
	for _, d := range core.RoleDivisions(role) {
		if c, ok := r.divisions[d]; ok {
			c.Join(m.id)
		}
	}
	r.events = append(r.events, Event{Kind: kind, Role: role, Agent: m.id, Reason: reason})
}

func (r *Roster) revoke(role core.Role, m *Member) {
	delete(r.holders, role)
	m.dropRole(role)
	if mx := r.multiplexed[m.id]; mx != nil {
		delete(mx, role)
	}
	needed := map[core.Station]bool{m.station: true}
	for _, held := range m.roles {
		for _, d := range core.RoleDivisions(held) {
			needed[d] = true
		}
	}
	for _, d := range core.RoleDivisions(role) {
		if !needed[d] {
			r.divisions[d].Leave(m.id)
		}
	}
	r.events = append(r.events, Event{Kind: core.RoleVacated, Role: role, Agent: m.id, Reason: "relieved"})
}

// Context returns everything the member is allowed to see, per channel.
func (r *Roster) Context(agentID string) []ChannelView {
	m, ok := r.byID[agentID]
	if !ok {
		return nil
	}
	var views []ChannelView
	if msgs := r.bridge.VisibleTo(m.id); len(msgs) > 0 || m.station == core.StationBridge {
		views = append(views, ChannelView{Channel: r.bridge.Name(), Scope: ScopeBridge, Messages: msgs})
	}
	for _, d := range core.Divisions {
		c := r.divisions[d]
		if msgs := c.VisibleTo(m.id); len(msgs) > 0 || c.IsMember(m.id) {
			views = append(views, ChannelView{Channel: c.Name(), Scope: ScopeDivision, Messages: msgs})
		}
	}
	if r.global != nil && m.alive && m.station == core.StationBridge {
		views = append(views, ChannelView{
			Channel:  r.global.Name(),
			Scope:    ScopeGlobal,
			Messages: r.global.VisibleSince(r.vesselID, m.globalFrom),
		})
	}
	return views
}

func (r *Roster) message(from string, role core.Role, text string) Message {
	return Message{Tick: r.tick, GameTime: r.gameTime, From: from, Role: role, Text: text}
}

// PostBridge appends to the bridge channel.
func (r *Roster) PostBridge(from string, role core.Role, text string) Message {
	return r.bridge.Append(r.message(from, role, text))
}

// PostDivision appends to a division channel.
func (r *Roster) PostDivision(s core.Station, from string, role core.Role, text string) (Message, error) {
	c, ok := r.divisions[s]
	if !ok {
		return Message{}, fmt.Errorf("%w: no division %q", core.ErrInvalidActionParameters, s)
	}
	return c.Append(r.message(from, role, text)), nil
}

// PostGlobal appends to the world's global channel.
func (r *Roster) PostGlobal(from string, role core.Role, text string) (Message, error) {
	if r.global == nil || !r.global.IsMember(r.vesselID) {
		return Message{}, fmt.Errorf("%w: %s is not subscribed to the global channel", core.ErrInvalidActionParameters, r.vesselName)
	}
	return r.global.Append(r.message(from, role, text)), nil
}

// Leave drops the vessel's global subscription; used when it is destroyed.
func (r *Roster) Leave() {
	if r.global != nil {
		r.global.Leave(r.vesselID)
	}
}

// CheckInvariants verifies the role table.
func (r *Roster) CheckInvariants() error {
	claims := make(map[core.Role]int)
	for _, m := range r.members {
		if !m.alive {
			if len(m.roles) > 0 {
				return fmt.Errorf("%w: dead member %s holds %v", ErrInvariant, m.id, m.roles)
			}
			continue
		}
		for _, role := range m.roles {
			claims[role]++
			if r.holders[role] != m.id {
				return fmt.Errorf("%w: %s claims %s held by %q", ErrInvariant, m.id, role, r.holders[role])
			}
		}
		if len(m.roles)-len(r.multiplexed[m.id]) > 1 {
			return fmt.Errorf("%w: %s holds %v without a multiplex directive", ErrInvariant, m.id, m.roles)
		}
	}
	for role, id := range r.holders {
		m, ok := r.byID[id]
		if !ok || !m.alive {
			return fmt.Errorf("%w: %s held by missing or dead member %q", ErrInvariant, role, id)
		}
		if claims[role] != 1 {
			return fmt.Errorf("%w: %s has %d living holders", ErrInvariant, role, claims[role])
		}
	}
	return nil
}
