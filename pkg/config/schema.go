package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schemas returns the JSON Schemas for every config document, keyed by
// document name. The YAML files are expected to validate against these.
func Schemas() map[string]*jsonschema.Schema {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	return map[string]*jsonschema.Schema{
		"reddit_config": r.Reflect(&RedditConfig{}),
		"openai_config": r.Reflect(&OpenAIConfig{}),
		"agent_config":  r.Reflect(&AgentConfig{}),
	}
}

// SchemaJSON renders the named document schema as indented JSON.
func SchemaJSON(name string) (string, error) {
	schema, ok := Schemas()[name]
	if !ok {
		return "", fmt.Errorf("unknown schema: %q", name)
	}
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
