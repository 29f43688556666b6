package crew

import (
	"fmt"
	"testing"

	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("agent-%02d", n)
	}
}

// destroyerCrew builds a roster with all four officers on the bridge.
func destroyerCrew(t *testing.T, reserve int) (*Roster, map[core.Role]*Member) {
	t.Helper()
	r := NewRoster(RosterConfig{VesselID: "v1", VesselName: "Kagero", Reserve: FiniteReserve(reserve), NewID: sequentialIDs()})
	officers := map[core.Role]*Member{
		core.RoleCommander:          r.Enlist("Cdr Ito", 5, KindCommander, core.StationBridge),
		core.RoleWeaponsOfficer:     r.Enlist("Lt Mori", 3, KindWeaponsOfficer, core.StationBridge),
		core.RoleHelmOfficer:        r.Enlist("Lt Sato", 3, KindHelmOfficer, core.StationBridge),
		core.RoleEngineeringOfficer: r.Enlist("Lt Abe", 3, KindEngineeringOfficer, core.StationBridge),
	}
	for _, role := range core.Roles {
		require.NoError(t, r.Assign(role, officers[role].ID()))
	}
	r.ProcessCasualties()
	return r, officers
}

func TestAssign_OneHolderPerRole(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	spare := r.Enlist("Ens Kato", 2, KindWeaponsOfficer, core.StationBridge)

	err := r.Assign(core.RoleHelmOfficer, spare.ID())
	assert.ErrorIs(t, err, core.ErrInvalidActionParameters)

	err = r.Assign(core.RoleHelmOfficer, officers[core.RoleCommander].ID())
	assert.ErrorIs(t, err, core.ErrInvalidActionParameters)

	h, ok := r.Holder(core.RoleHelmOfficer)
	require.True(t, ok)
	assert.Equal(t, officers[core.RoleHelmOfficer].ID(), h.ID())
	assert.NoError(t, r.CheckInvariants())
}

func TestAssign_RequiresBridge(t *testing.T) {
	r := NewRoster(RosterConfig{VesselID: "v1", VesselName: "Kagero", NewID: sequentialIDs()})
	m := r.Enlist("PO Endo", 2, KindUnassignedLowerRank, core.StationGunnery)

	assert.ErrorIs(t, r.Assign(core.RoleWeaponsOfficer, m.ID()), core.ErrInvalidActionParameters)
}

func TestAuthorize(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	wo := officers[core.RoleWeaponsOfficer]

	assert.NoError(t, r.Authorize(core.RoleWeaponsOfficer, wo.ID()))
	assert.ErrorIs(t, r.Authorize(core.RoleWeaponsOfficer, officers[core.RoleHelmOfficer].ID()),
		core.ErrActionRejectedStaleAuthority)

	r.Abandon()
	r.MarkKIA(wo.ID())
	r.ProcessCasualties()
	assert.ErrorIs(t, r.Authorize(core.RoleWeaponsOfficer, wo.ID()), core.ErrActionRejectedStaleAuthority,
		"dead former holder is stale even while the role is vacant")
	assert.ErrorIs(t, r.Authorize(core.RoleWeaponsOfficer, officers[core.RoleCommander].ID()), core.ErrRoleVacant)
}

func TestAuthorize_RelievedHolderOfVacantRole(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	helm := officers[core.RoleHelmOfficer]
	spare := r.Enlist("Ens Kato", 2, KindUnassignedLowerRank, core.StationBridge)
	require.NoError(t, r.Reassign(core.RoleHelmOfficer, spare.ID()))
	r.Abandon()
	r.MarkKIA(spare.ID())
	r.ProcessCasualties()

	assert.ErrorIs(t, r.Authorize(core.RoleHelmOfficer, helm.ID()), core.ErrActionRejectedStaleAuthority)
}

func TestRouteOrder(t *testing.T) {
	r, officers := destroyerCrew(t, 0)

	h, err := r.RouteOrder(Order{Vessel: "v1", Role: core.RoleHelmOfficer, Text: "come right to 090"})
	require.NoError(t, err)
	assert.Equal(t, officers[core.RoleHelmOfficer].ID(), h.ID())
	require.Len(t, h.Orders(), 1)
	assert.Equal(t, "come right to 090", h.Orders()[0].Text)

	r.Abandon()
	r.MarkKIA(h.ID())
	r.ProcessCasualties()
	_, err = r.RouteOrder(Order{Vessel: "v1", Role: core.RoleHelmOfficer, Text: "steady"})
	assert.ErrorIs(t, err, core.ErrRoleVacant)
}

func TestMarkKIA_VacatesRoles(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	helm := officers[core.RoleHelmOfficer]

	vacated := r.MarkKIA(helm.ID())
	assert.Equal(t, []core.Role{core.RoleHelmOfficer}, vacated)
	assert.False(t, helm.Alive())
	assert.Empty(t, helm.Roles())
	assert.Nil(t, r.MarkKIA(helm.ID()), "second kill is a no-op")
	assert.False(t, r.Bridge().IsMember(helm.ID()))
}

func TestProcessCasualties_SpawnsFromReserve(t *testing.T) {
	r := NewRoster(RosterConfig{VesselID: "v1", VesselName: "Kagero", Reserve: FiniteReserve(2), NewID: sequentialIDs()})
	wo := r.Enlist("Lt Mori", 3, KindWeaponsOfficer, core.StationBridge)
	require.NoError(t, r.Assign(core.RoleWeaponsOfficer, wo.ID()))
	r.PostBridge(wo.ID(), core.RoleWeaponsOfficer, "guns loaded")
	r.ProcessCasualties()

	r.MarkKIA(wo.ID())
	events := r.ProcessCasualties()

	h, ok := r.Holder(core.RoleWeaponsOfficer)
	require.True(t, ok, "role refilled in the same crew phase")
	assert.Equal(t, KindUnassignedLowerRank, h.Kind())
	assert.Equal(t, LowerRank, h.Rank())
	assert.Equal(t, core.StationBridge, h.Station())
	assert.Equal(t, 1, r.Reserve())

	for _, v := range r.Context(h.ID()) {
		assert.Empty(t, v.Messages, "fresh agent sees no history on %s", v.Channel)
	}

	var kinds []string
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{core.RoleVacated, EventKilled, core.RoleSpawned}, kinds)
	assert.NoError(t, r.CheckInvariants())
}

func TestProcessCasualties_UnlimitedByDefault(t *testing.T) {
	r := NewRoster(RosterConfig{VesselID: "v1", VesselName: "Kagero", NewID: sequentialIDs()})
	assert.Equal(t, UnlimitedReserve, r.Reserve())

	for i := 0; i < 3; i++ {
		wo := r.Enlist(fmt.Sprintf("Lt %d", i), 3, KindWeaponsOfficer, core.StationBridge)
		if i == 0 {
			require.NoError(t, r.Assign(core.RoleWeaponsOfficer, wo.ID()))
		}
	}
	for _, m := range r.AtStation(core.StationBridge) {
		r.MarkKIA(m.ID())
	}
	r.ProcessCasualties()

	for i := 0; i < 5; i++ {
		h, ok := r.Holder(core.RoleWeaponsOfficer)
		require.True(t, ok, "round %d", i)
		assert.Equal(t, KindUnassignedLowerRank, h.Kind())
		r.MarkKIA(h.ID())
		r.ProcessCasualties()
	}
	assert.Equal(t, UnlimitedReserve, r.Reserve())
	assert.NoError(t, r.CheckInvariants())
}

func TestNewRoster_NegativeReserveIsEmpty(t *testing.T) {
	r := NewRoster(RosterConfig{VesselID: "v1", VesselName: "Kagero", Reserve: FiniteReserve(-3), NewID: sequentialIDs()})
	assert.Equal(t, 0, r.Reserve())
}

func TestProcessCasualties_PromotesMostSenior(t *testing.T) {
	r, officers := destroyerCrew(t, 5)
	junior := r.Enlist("Ens Kato", 2, KindUnassignedLowerRank, core.StationBridge)
	senior := r.Enlist("Lt Cdr Ueda", 4, KindUnassignedLowerRank, core.StationBridge)
	late := r.Enlist("Lt Cdr Noda", 4, KindUnassignedLowerRank, core.StationBridge)

	r.MarkKIA(officers[core.RoleWeaponsOfficer].ID())
	r.ProcessCasualties()

	h, ok := r.Holder(core.RoleWeaponsOfficer)
	require.True(t, ok)
	assert.Equal(t, senior.ID(), h.ID(), "rank first, then arrival")
	assert.Equal(t, 5, r.Reserve(), "no reserve used while officers are free")

	r.MarkKIA(officers[core.RoleHelmOfficer].ID())
	r.ProcessCasualties()
	h, _ = r.Holder(core.RoleHelmOfficer)
	assert.Equal(t, late.ID(), h.ID())

	r.MarkKIA(officers[core.RoleEngineeringOfficer].ID())
	r.ProcessCasualties()
	h, _ = r.Holder(core.RoleEngineeringOfficer)
	assert.Equal(t, junior.ID(), h.ID())
	assert.NoError(t, r.CheckInvariants())
}

func TestProcessCasualties_PromotedAgentKeepsOnlyOwnHistory(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	r.PostBridge(officers[core.RoleCommander].ID(), core.RoleCommander, "before arrival")

	relief := r.Enlist("Lt Cdr Ueda", 4, KindUnassignedLowerRank, core.StationBridge)
	r.PostBridge(officers[core.RoleCommander].ID(), core.RoleCommander, "after arrival")

	r.MarkKIA(officers[core.RoleWeaponsOfficer].ID())
	r.ProcessCasualties()

	h, ok := r.Holder(core.RoleWeaponsOfficer)
	require.True(t, ok)
	require.Equal(t, relief.ID(), h.ID())

	var bridge []string
	for _, v := range r.Context(h.ID()) {
		if v.Scope == ScopeBridge {
			for _, m := range v.Messages {
				bridge = append(bridge, m.Text)
			}
		}
	}
	assert.Equal(t, []string{"after arrival"}, bridge)
}

func TestProcessCasualties_AbandonedStaysVacant(t *testing.T) {
	r, officers := destroyerCrew(t, 3)
	r.Enlist("Ens Kato", 2, KindUnassignedLowerRank, core.StationBridge)
	r.Abandon()

	r.MarkKIA(officers[core.RoleHelmOfficer].ID())
	r.ProcessCasualties()

	_, ok := r.Holder(core.RoleHelmOfficer)
	assert.False(t, ok)
	assert.Equal(t, 3, r.Reserve())
	assert.True(t, r.Abandoned())
}

func TestProcessCasualties_ReserveExhausted(t *testing.T) {
	r, officers := destroyerCrew(t, 0)

	r.MarkKIA(officers[core.RoleHelmOfficer].ID())
	r.ProcessCasualties()

	_, ok := r.Holder(core.RoleHelmOfficer)
	assert.False(t, ok)

	// commander takes the helm explicitly
	require.NoError(t, r.Multiplex(core.RoleHelmOfficer, officers[core.RoleCommander].ID()))
	cdr := officers[core.RoleCommander]
	assert.Equal(t, []core.Role{core.RoleCommander, core.RoleHelmOfficer}, cdr.Roles())
	assert.NoError(t, r.Authorize(core.RoleHelmOfficer, cdr.ID()))
	assert.NoError(t, r.CheckInvariants())
}

func TestMultiplex_RejectsHeldRole(t *testing.T) {
	r, officers := destroyerCrew(t, 0)

	err := r.Multiplex(core.RoleHelmOfficer, officers[core.RoleCommander].ID())
	assert.ErrorIs(t, err, core.ErrInvalidActionParameters)
}

func TestMultiplex_KillVacatesEveryRole(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	cdr := officers[core.RoleCommander]
	r.MarkKIA(officers[core.RoleWeaponsOfficer].ID())
	r.ProcessCasualties()
	require.NoError(t, r.Multiplex(core.RoleWeaponsOfficer, cdr.ID()))

	vacated := r.MarkKIA(cdr.ID())
	assert.ElementsMatch(t, []core.Role{core.RoleCommander, core.RoleWeaponsOfficer}, vacated)
	assert.NoError(t, r.CheckInvariants())
}

func TestReassign_TransfersRole(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	spare := r.Enlist("Ens Kato", 2, KindUnassignedLowerRank, core.StationBridge)
	old := officers[core.RoleWeaponsOfficer]

	require.NoError(t, r.Reassign(core.RoleWeaponsOfficer, spare.ID()))

	assert.Empty(t, old.Roles())
	assert.ErrorIs(t, r.Authorize(core.RoleWeaponsOfficer, old.ID()), core.ErrActionRejectedStaleAuthority)
	gunnery, _ := r.Division(core.StationGunnery)
	assert.False(t, gunnery.IsMember(old.ID()))
	assert.True(t, gunnery.IsMember(spare.ID()))

	assert.ErrorIs(t, r.Reassign(core.RoleHelmOfficer, officers[core.RoleCommander].ID()), core.ErrInvalidActionParameters)
	assert.NoError(t, r.CheckInvariants())
}

func TestSummon_BridgeContextStartsAtArrival(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	cdr := officers[core.RoleCommander]
	po := r.Enlist("PO Endo", 2, KindUnassignedLowerRank, core.StationGunnery)

	r.PostBridge(cdr.ID(), core.RoleCommander, "enemy in sight")
	_, err := r.PostDivision(core.StationGunnery, po.ID(), "", "mount two ready")
	require.NoError(t, err)

	require.NoError(t, r.Summon(po.ID()))
	assert.Equal(t, core.StationBridge, po.Station())
	assert.ErrorIs(t, r.Summon(po.ID()), core.ErrInvalidActionParameters)

	r.PostBridge(cdr.ID(), core.RoleCommander, "welcome aboard")

	views := r.Context(po.ID())
	byChannel := map[string][]string{}
	for _, v := range views {
		for _, m := range v.Messages {
			byChannel[v.Channel] = append(byChannel[v.Channel], m.Text)
		}
	}
	assert.Equal(t, []string{"welcome aboard"}, byChannel["Kagero/bridge"])
	assert.Equal(t, []string{"mount two ready"}, byChannel["Kagero/gunnery"])
}

func TestContext_DivisionLinkedToRole(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	_, err := r.PostDivision(core.StationTorpedo, SystemSender, "", "tubes trained")
	require.NoError(t, err)

	channels := func(m *Member) []string {
		var out []string
		for _, v := range r.Context(m.ID()) {
			if v.Scope == ScopeDivision {
				out = append(out, v.Channel)
			}
		}
		return out
	}
	assert.Equal(t, []string{"Kagero/gunnery", "Kagero/torpedo"}, channels(officers[core.RoleWeaponsOfficer]))
	assert.Equal(t, []string{"Kagero/engineering"}, channels(officers[core.RoleEngineeringOfficer]))
	assert.Empty(t, channels(officers[core.RoleHelmOfficer]))
}

func TestGlobalChannel(t *testing.T) {
	global := NewChannel("global", ScopeGlobal)
	global.Append(Message{From: "v0", Text: "before subscription"})

	r, officers := destroyerCrew(t, 0)
	r.SubscribeGlobal(global)
	_, err := r.PostGlobal(officers[core.RoleCommander].ID(), core.RoleCommander, "Kagero engaging")
	require.NoError(t, err)

	late := r.Enlist("Ens Kato", 2, KindUnassignedLowerRank, core.StationBridge)
	global.Append(Message{From: "v2", Text: "Yukikaze engaging"})

	globalTexts := func(m *Member) []string {
		var out []string
		for _, v := range r.Context(m.ID()) {
			if v.Scope == ScopeGlobal {
				for _, msg := range v.Messages {
					out = append(out, msg.Text)
				}
			}
		}
		return out
	}
	assert.Equal(t, []string{"Kagero engaging", "Yukikaze engaging"}, globalTexts(officers[core.RoleCommander]))
	assert.Equal(t, []string{"Yukikaze engaging"}, globalTexts(late))

	r.Leave()
	assert.False(t, global.IsMember("v1"))
	_, err = r.PostGlobal(officers[core.RoleCommander].ID(), core.RoleCommander, "still here")
	assert.ErrorIs(t, err, core.ErrInvalidActionParameters)
}

func TestPostGlobal_NotSubscribed(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	_, err := r.PostGlobal(officers[core.RoleCommander].ID(), core.RoleCommander, "hello")
	assert.ErrorIs(t, err, core.ErrInvalidActionParameters)
}

func TestCheckInvariants_DetectsCorruption(t *testing.T) {
	r, officers := destroyerCrew(t, 0)
	r.holders[core.RoleHelmOfficer] = officers[core.RoleCommander].ID()

	assert.ErrorIs(t, r.CheckInvariants(), ErrInvariant)
}
