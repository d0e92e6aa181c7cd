package adapter

import (
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var genaiTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
}

// convertJSONSchemaToGenai converts a JSON Schema into a Gemini response
// schema. Object properties keep their required order so that the model
// emits fields in a stable sequence.
func convertJSONSchemaToGenai(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{
		Description: schema.Description,
	}

	if schema.Type != "" {
		t, ok := genaiTypes[schema.Type]
		if !ok {
			return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
		}
		out.Type = t
	}

	for _, v := range schema.Enum {
		if s, ok := v.(string); ok {
			out.Enum = append(out.Enum, s)
		}
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := convertJSONSchemaToGenai(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}

		out.PropertyOrdering = slices.Clone(schema.Required)
		for name := range schema.Properties {
			if !slices.Contains(out.PropertyOrdering, name) {
				out.PropertyOrdering = append(out.PropertyOrdering, name)
			}
		}
	}

	if len(schema.Required) > 0 {
		out.Required = slices.Clone(schema.Required)
	}

	if schema.Items != nil {
		converted, err := convertJSONSchemaToGenai(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = converted
	}

	return out, nil
}
