package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/OCAP2/navalsim/internal/logging"
	"github.com/OCAP2/navalsim/internal/world"
	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderLine(t *testing.T) {
	o, err := parseOrderLine(`fubuki helm_officer  {"kind":"set_speed","params":{"knots": 20}}`)
	require.NoError(t, err)
	assert.Equal(t, "fubuki", o.Vessel)
	assert.Equal(t, core.RoleHelmOfficer, o.Role)
	assert.Equal(t, `{"kind":"set_speed","params":{"knots": 20}}`, o.Text)
	assert.Equal(t, playerIssuer, o.Issuer)

	_, err = parseOrderLine("fubuki helm_officer")
	assert.Error(t, err)

	_, err = parseOrderLine("fubuki navigator come about")
	assert.Error(t, err)
}

type queued struct {
	orders []world.ScriptedOrder
	full   bool
}

func (q *queued) Order(o world.ScriptedOrder) error {
	if q.full {
		return world.ErrOrderQueueFull
	}
	q.orders = append(q.orders, o)
	return nil
}

func TestReadOrderLines(t *testing.T) {
	SlogManager = logging.NewSlogManager()
	Logger = SlogManager.Logger()

	in := strings.NewReader(strings.Join([]string{
		"# comment",
		"",
		"fubuki commander all hands to battle stations",
		"garbage",
		"enemy weapons_officer fire at will",
	}, "\n"))
	q := &queued{}
	readOrderLines(context.Background(), in, q)

	require.Len(t, q.orders, 2)
	assert.Equal(t, "all hands to battle stations", q.orders[0].Text)
	assert.Equal(t, core.RoleWeaponsOfficer, q.orders[1].Role)
}

func TestReadOrderLines_StopsWhenCancelled(t *testing.T) {
	Logger = logging.NewSlogManager().Logger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := &queued{}
	readOrderLines(ctx, strings.NewReader("fubuki commander halt"), q)
	assert.Empty(t, q.orders)
}

func TestReadOrderLines_QueueFullIsLogged(t *testing.T) {
	Logger = logging.NewSlogManager().Logger()
	q := &queued{full: true}
	readOrderLines(context.Background(), strings.NewReader("fubuki commander halt"), q)
	assert.Empty(t, q.orders)
	assert.True(t, errors.Is(q.Order(world.ScriptedOrder{}), world.ErrOrderQueueFull))
}
