package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/OCAP2/navalsim/internal/world"
	"github.com/OCAP2/navalsim/pkg/core"
)

// playerIssuer names the player on the channels.
const playerIssuer = "player"

// parseOrderLine reads "<vessel> <role> <text...>".
func parseOrderLine(line string) (world.ScriptedOrder, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return world.ScriptedOrder{}, fmt.Errorf("expected '<vessel> <role> <text>', got %q", line)
	}
	role, err := core.ParseRole(fields[1])
	if err != nil {
		return world.ScriptedOrder{}, err
	}
	// keep the text as typed after the second field
	rest := strings.TrimSpace(line)
	for i := 0; i < 2; i++ {
		rest = strings.TrimSpace(rest[len(strings.Fields(rest)[0]):])
	}
	return world.ScriptedOrder{
		Vessel: fields[0],
		Role:   role,
		Text:   rest,
		Issuer: playerIssuer,
	}, nil
}

// orderQueue is the part of world.Runner used by readOrderLines.
type orderQueue interface {
	Order(o world.ScriptedOrder) error
}

// readOrderLines forwards orders from r until EOF or ctx is done.
func readOrderLines(ctx context.Context, r io.Reader, q orderQueue) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		o, err := parseOrderLine(line)
		if err != nil {
			Logger.Warn("Ignoring order", "error", err)
			continue
		}
		if err := q.Order(o); err != nil {
			Logger.Warn("Order not queued", "vessel", o.Vessel, "role", o.Role, "error", err)
		}
	}
}
