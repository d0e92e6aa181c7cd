package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/washp/pkg/adapter"
	"github.com/m-mizutani/washp/pkg/care"
	"google.golang.org/genai"
)

func TestGeminiGenerate(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	text, err := client.Generate(ctx, &adapter.InferenceRequest{
		System: "You answer in JSON.",
		Prompt: `Return {"title": "Blue Shirt"} with the other fields filled with short placeholders.`,
		Schema: care.Schema(),
	})
	gt.NoError(t, err)
	gt.S(t, text).Contains("title")
}

func TestConvertJSONSchemaToGenai(t *testing.T) {
	converted, err := adapter.ConvertJSONSchemaToGenaiForTest(care.Schema())
	gt.NoError(t, err)
	gt.Equal(t, converted.Type, genai.TypeObject)
	gt.A(t, converted.Required).Length(11)
	gt.A(t, converted.PropertyOrdering).Length(11)

	summary := converted.Properties["summary"]
	gt.V(t, summary).NotNil()
	gt.Equal(t, summary.Type, genai.TypeObject)
	gt.Equal(t, summary.Properties["temperature"].Type, genai.TypeString)

	preWash := converted.Properties["preWash"]
	gt.Equal(t, preWash.Type, genai.TypeArray)
	gt.Equal(t, preWash.Items.Type, genai.TypeString)
}

func TestConvertJSONSchemaToGenaiTypes(t *testing.T) {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"count":   {Type: "integer"},
			"ratio":   {Type: "number"},
			"enabled": {Type: "boolean"},
			"mode":    {Type: "string", Enum: []any{"fast", "slow"}},
		},
		Required: []string{"mode"},
	}

	converted, err := adapter.ConvertJSONSchemaToGenaiForTest(schema)
	gt.NoError(t, err)
	gt.Equal(t, converted.Properties["count"].Type, genai.TypeInteger)
	gt.Equal(t, converted.Properties["ratio"].Type, genai.TypeNumber)
	gt.Equal(t, converted.Properties["enabled"].Type, genai.TypeBoolean)
	gt.Equal(t, converted.Properties["mode"].Enum, []string{"fast", "slow"})
	gt.Equal(t, converted.PropertyOrdering[0], "mode")
	gt.A(t, converted.PropertyOrdering).Length(4)

	_, err = adapter.ConvertJSONSchemaToGenaiForTest(&jsonschema.Schema{Type: "null"})
	gt.Error(t, err)

	nilSchema, err := adapter.ConvertJSONSchemaToGenaiForTest(nil)
	gt.NoError(t, err)
	gt.Nil(t, nilSchema)
}
