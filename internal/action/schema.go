package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/OCAP2/navalsim/pkg/core"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemaSources = map[Kind]string{
	KindSetSpeed: `{
		"type": "object",
		"required": ["knots"],
		"properties": {"knots": {"type": "number"}},
		"additionalProperties": false
	}`,
	KindSetHeading: `{
		"type": "object",
		"required": ["degrees"],
		"properties": {"degrees": {"type": "number"}},
		"additionalProperties": false
	}`,
	KindFireGuns:        fireSchema,
	KindLaunchTorpedoes: fireSchema,
	KindReassignRole:    roleSchema,
	KindMultiplexRole:   roleSchema,
	KindSummon: `{
		"type": "object",
		"required": ["agent_id"],
		"properties": {"agent_id": {"type": "string", "minLength": 1}},
		"additionalProperties": false
	}`,
	KindAbandonShip: `{
		"type": "object",
		"additionalProperties": false
	}`,
	KindReport: `{
		"type": "object",
		"required": ["text"],
		"properties": {
			"text": {"type": "string", "minLength": 1},
			"channel": {"enum": ["bridge", "global"]}
		},
		"additionalProperties": false
	}`,
}

const fireSchema = `{
	"type": "object",
	"required": ["target_id"],
	"properties": {
		"target_id": {"type": "string", "minLength": 1},
		"mount": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": false
}`

const roleSchema = `{
	"type": "object",
	"required": ["role", "agent_id"],
	"properties": {
		"role": {"enum": ["commander", "weapons_officer", "helm_officer", "engineering_officer"]},
		"agent_id": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

var (
	schemasOnce sync.Once
	schemas     map[Kind]*jsonschema.Schema
)

func compiled() map[Kind]*jsonschema.Schema {
	schemasOnce.Do(func() {
		schemas = make(map[Kind]*jsonschema.Schema, len(schemaSources))
		for k, src := range schemaSources {
			schemas[k] = jsonschema.MustCompileString("action/"+string(k)+".json", src)
		}
	})
	return schemas
}

// Validate checks the action parameters against the schema of its kind.
// Missing parameters are validated as an empty object.
func Validate(a Action) error {
	s, ok := compiled()[a.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown action kind %q", core.ErrInvalidActionParameters, a.Kind)
	}
	raw := a.Params
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = []byte("{}")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidActionParameters, a.Kind, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidActionParameters, a.Kind, err)
	}
	return nil
}
