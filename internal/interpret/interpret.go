// Package interpret hands natural-language orders to an external
// interpreter and feeds the resulting actions back to the dispatcher,
// without ever blocking the world tick.
package interpret

import (
	"context"
	"fmt"

	"github.com/OCAP2/navalsim/internal/action"
	"github.com/OCAP2/navalsim/internal/crew"
	"github.com/OCAP2/navalsim/pkg/core"
)

// Request is everything an interpreter gets to turn an order into an
// action. View and Context are copies taken when the order was issued.
type Request struct {
	Vessel    string             `json:"vessel"`
	Role      core.Role          `json:"role"`
	AgentID   string             `json:"agent_id"`
	OrderText string             `json:"order"`
	Issuer    string             `json:"issuer,omitempty"`
	Allowed   []action.Kind      `json:"allowed"`
	View      core.View          `json:"snapshot"`
	Context   []crew.ChannelView `json:"context,omitempty"`
}

// Interpreter turns an order into a structured action.
type Interpreter interface {
	Interpret(ctx context.Context, req Request) (action.Action, error)
}

// Func adapts a plain function to Interpreter.
type Func func(ctx context.Context, req Request) (action.Action, error)

// Interpret calls f.
func (f Func) Interpret(ctx context.Context, req Request) (action.Action, error) {
	return f(ctx, req)
}

// bind stamps the action with the authority it was produced under. The
// interpreter only decides kind and parameters.
func bind(req Request, a action.Action) action.Action {
	a.Vessel = req.Vessel
	a.Role = req.Role
	a.ProducedBy = req.AgentID
	a.Seq = 0
	return a
}

func failed(req Request, err error) error {
	return fmt.Errorf("%s %s %q: %w: %w", req.Vessel, req.Role, req.OrderText, core.ErrInterpretationFailed, err)
}
