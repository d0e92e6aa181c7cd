package care

import (
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
)

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func strList(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: desc,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}

func object(props map[string]*jsonschema.Schema, desc string) *jsonschema.Schema {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	slices.Sort(required)

	return &jsonschema.Schema{
		Type:        "object",
		Description: desc,
		Properties:  props,
		Required:    required,
	}
}

// Schema returns the JSON Schema every analysis must satisfy. All listed
// properties are required.
func Schema() *jsonschema.Schema {
	return object(map[string]*jsonschema.Schema{
		"title": str("Name of the garment with its main material and brand if recognised"),
		"summary": object(map[string]*jsonschema.Schema{
			"program":     str("Recommended washing program"),
			"temperature": str("Exact washing temperature, e.g. 30°C"),
			"spin":        str("Spin speed adapted to the textile"),
			"detergent":   str("Recommended detergent type"),
		}, "Washing summary"),
		"stains":            str("Analysis of visible stains and their treatment"),
		"preWash":           strList("Preparation steps before washing"),
		"duringWash":        strList("Precautions during the washing cycle"),
		"postWash":          strList("Drying and finishing steps"),
		"additionalTips":    strList("Garment specific advice"),
		"fabricType":        str("Composition with estimated percentages"),
		"colorPreservation": strList("Methods to preserve the colour"),
		"environmentalImpact": object(map[string]*jsonschema.Schema{
			"waterUsage":       str("Impact on water consumption"),
			"energyEfficiency": str("Energy efficiency of the recommendations"),
			"ecologicalTips":   strList("Ecological alternatives"),
		}, "Environmental impact of the recommended care"),
		"maintenance": object(map[string]*jsonschema.Schema{
			"frequency": str("Recommended washing frequency"),
			"storage":   strList("Storage advice"),
			"repairs":   strList("Preventive repair advice"),
		}, "Long term maintenance"),
	}, "Care analysis of a garment")
}

var (
	resolvedOnce   sync.Once
	resolvedSchema *jsonschema.Resolved
	resolveErr     error
)

func resolved() (*jsonschema.Resolved, error) {
	resolvedOnce.Do(func() {
		resolvedSchema, resolveErr = Schema().Resolve(nil)
		if resolveErr != nil {
			resolveErr = goerr.Wrap(resolveErr, "failed to resolve analysis schema")
		}
	})
	return resolvedSchema, resolveErr
}

// validate reports whether v (a value decoded by encoding/json) has the
// complete analysis shape.
func validate(v map[string]any) error {
	rs, err := resolved()
	if err != nil {
		return err
	}
	if err := rs.Validate(v); err != nil {
		return goerr.Wrap(err, "analysis does not match schema")
	}
	return nil
}
