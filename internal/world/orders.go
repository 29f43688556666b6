package world

import (
	"fmt"

	"github.com/OCAP2/navalsim/internal/action"
	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/internal/interpret"
	"github.com/OCAP2/navalsim/pkg/core"
)

// IssueOrder routes a natural-language order to the current holder of a
// role, records it on the bridge and hands it to the interpreter. It fails
// with core.ErrRoleVacant when nobody holds the role.
func (w *World) IssueOrder(vesselID string, role core.Role, text, issuer string) error {
	v, ok := w.byID[vesselID]
	if !ok {
		return fmt.Errorf("%q: %w", vesselID, core.ErrUnknownVessel)
	}
	r := v.Roster()
	o := crew.Order{Vessel: vesselID, Role: role, Text: text, Issuer: issuer, GameTime: w.gameTime}
	holder, err := r.RouteOrder(o)
	if err != nil {
		return err
	}

	issuerRole := core.Role("")
	if m, ok := r.Member(issuer); ok {
		issuerRole, _ = m.CurrentRole()
	}
	w.postBridge(v, issuer, issuerRole, fmt.Sprintf("%s, %s", role, text))

	if w.cfg.Handler == nil {
		return nil
	}
	view, err := w.ForVessel(vesselID)
	if err != nil {
		return err
	}
	w.cfg.Handler.Handle(interpret.Request{
		Vessel:    vesselID,
		Role:      role,
		AgentID:   holder.ID(),
		OrderText: text,
		Issuer:    issuer,
		Allowed:   action.KindsFor(role),
		View:      view,
		Context:   r.Context(holder.ID()),
	})
	return nil
}
