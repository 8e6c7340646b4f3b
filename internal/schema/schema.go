// Package schema generates the JSON Schema of subagent configuration
// documents.
package schema

import (
	"encoding/json"
	"reflect"

	"github.com/aleksclark/crush-subagents/internal/subagent"
	"github.com/invopop/jsonschema"
)

// ID is the schema identifier.
const ID = "https://charm.land/crush-subagents.json"

// Document is a configuration document keyed by subagent id.
type Document map[string]Entry

// Entry is the configuration of one subagent.
type Entry struct {
	subagent.Profile
	Variants map[string]subagent.Profile `json:"variants,omitempty" jsonschema:"description=Overrides keyed by model pattern. * matches any run of characters and the first declared match wins"`
}

// Generate returns the indented JSON Schema of Document.
func Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         mapType,
	}
	s := r.Reflect(Document{})
	s.ID = ID
	s.Title = "Crush subagents"
	s.Description = "Subagent profiles layered over the packaged defaults"
	return json.MarshalIndent(s, "", "  ")
}

func mapType(t reflect.Type) *jsonschema.Schema {
	if t != reflect.TypeFor[subagent.Permission]() {
		return nil
	}
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{
			string(subagent.PermissionAllow),
			string(subagent.PermissionDeny),
			string(subagent.PermissionInherit),
		},
		Description: "allow or deny the action. inherit keeps the base profile's value and only applies in variants",
	}
}
