package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of skeleton config files.
func Schema() *jsonschema.Schema {
	s := jsonschema.Reflect(&SkeletonConfig{})
	s.Title = "kinetree skeleton"
	return s
}

// SchemaJSON returns the indented JSON schema of skeleton config files.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
