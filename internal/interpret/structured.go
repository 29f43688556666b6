package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/OCAP2/navalsim/internal/action"
)

// Structured reads orders that are already written as actions, in the
// interpretation service's response format:
//
//	{"kind": "set_speed", "params": {"knots": 20}}
//
// It serves scripted scenarios and runs without an interpretation service.
type Structured struct{}

var _ Interpreter = Structured{}

// Interpret decodes the order text.
func (Structured) Interpret(ctx context.Context, r Request) (action.Action, error) {
	if err := ctx.Err(); err != nil {
		return action.Action{}, err
	}
	var out response
	dec := json.NewDecoder(strings.NewReader(r.OrderText))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return action.Action{}, fmt.Errorf("order is not a structured action: %w", err)
	}
	kind, err := action.ParseKind(string(out.Kind))
	if err != nil {
		return action.Action{}, err
	}
	if len(r.Allowed) > 0 && !slices.Contains(r.Allowed, kind) {
		return action.Action{}, fmt.Errorf("%s may not %s", r.Role, kind)
	}
	return action.Action{Kind: kind, Params: out.Params}, nil
}
