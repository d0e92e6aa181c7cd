package care_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/washp/pkg/care"
	"github.com/m-mizutani/washp/pkg/model"
)

func blueShirt() *model.AnalysisResult {
	return &model.AnalysisResult{
		Title: "Blue Shirt",
		Summary: model.CareSummary{
			Program:     "Cotton",
			Temperature: "40°C",
			Spin:        "800 rpm",
			Detergent:   "Color detergent",
		},
		Stains:            "Small coffee stain on the left cuff",
		PreWash:           []string{"Unbutton the collar", "Pre-treat the cuff"},
		DuringWash:        []string{"Wash with dark colors"},
		PostWash:          []string{"Hang to dry", "Iron while damp"},
		AdditionalTips:    []string{"Use a laundry bag"},
		FabricType:        "100% cotton poplin",
		ColorPreservation: []string{"Turn inside out"},
		EnvironmentalImpact: model.EnvironmentalImpact{
			WaterUsage:       "Low",
			EnergyEfficiency: "Good",
			EcologicalTips:   []string{"Wash full loads"},
		},
		Maintenance: model.Maintenance{
			Frequency: "After each wear",
			Storage:   []string{"Hang on a wooden hanger"},
			Repairs:   []string{"Reinforce the buttons"},
		},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	gt.NoError(t, err)
	return string(data)
}

func TestParseValid(t *testing.T) {
	expected := blueShirt()
	raw := mustJSON(t, expected)

	testCases := []struct {
		name string
		text string
	}{
		{"bare object", raw},
		{"prose around", "Here you go: " + raw + "\nLet me know if you need more."},
		{"markdown fence", "```json\n" + raw + "\n```"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, locale := range model.Locales {
				result, outcome := care.Parse(tc.text, locale)
				gt.Equal(t, outcome, care.OutcomeValid)
				gt.Equal(t, result, expected)
			}
		})
	}
}

func TestParseFallback(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"prose only", "I am sorry, I cannot identify this garment."},
		{"malformed", `{"title": "Shirt", "summary": {`},
		{"broken value", `Result: {"title": Shirt}`},
		{"only closing brace", "} nothing here"},
		{"array", `["title", "summary"]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, locale := range model.Locales {
				result, outcome := care.Parse(tc.text, locale)
				gt.Equal(t, outcome, care.OutcomeFallback)
				gt.Equal(t, result, care.Default(locale))
			}
		})
	}
}

func TestParseRepairsPartialObject(t *testing.T) {
	text := `Analysis:
{
  "title": "Wool Sweater",
  "summary": {"program": "Wool", "temperature": 30, "spin": "Low"},
  "stains": null,
  "preWash": ["Turn inside out"],
  "duringWash": "Gentle",
  "postWash": ["Dry flat", 3],
  "additionalTips": [],
  "maintenance": {"frequency": "Rarely"},
  "environmentalImpact": "none"
}`

	result, outcome := care.Parse(text, model.LocaleEN)
	gt.Equal(t, outcome, care.OutcomeRepaired)

	def := care.Default(model.LocaleEN)

	// well-typed values win
	gt.Equal(t, result.Title, "Wool Sweater")
	gt.Equal(t, result.Summary.Program, "Wool")
	gt.Equal(t, result.Summary.Spin, "Low")
	gt.Equal(t, result.PreWash, []string{"Turn inside out"})
	gt.Equal(t, result.AdditionalTips, []string{})
	gt.Equal(t, result.Maintenance.Frequency, "Rarely")

	// missing or mistyped values keep the default
	gt.Equal(t, result.Summary.Temperature, def.Summary.Temperature)
	gt.Equal(t, result.Summary.Detergent, def.Summary.Detergent)
	gt.Equal(t, result.Stains, def.Stains)
	gt.Equal(t, result.DuringWash, def.DuringWash)
	gt.Equal(t, result.PostWash, def.PostWash)
	gt.Equal(t, result.FabricType, def.FabricType)
	gt.Equal(t, result.ColorPreservation, def.ColorPreservation)
	gt.Equal(t, result.EnvironmentalImpact, def.EnvironmentalImpact)
	gt.Equal(t, result.Maintenance.Storage, def.Maintenance.Storage)
	gt.Equal(t, result.Maintenance.Repairs, def.Maintenance.Repairs)
}

func TestParseRepairUsesLocaleDefault(t *testing.T) {
	result, outcome := care.Parse(`{"title": "Robe en lin"}`, model.LocaleFR)
	gt.Equal(t, outcome, care.OutcomeRepaired)
	gt.Equal(t, result.Title, "Robe en lin")
	gt.Equal(t, result.Summary.Program, "Délicat")
	gt.Equal(t, result.FabricType, "Tissu mixte")
}

func TestParseIgnoresBracesInStrings(t *testing.T) {
	expected := blueShirt()
	expected.Stains = "Marker stain shaped like a } and a {"
	text := "Output: " + mustJSON(t, expected) + " and a trailing note {not json}"

	result, outcome := care.Parse(text, model.LocaleEN)
	gt.Equal(t, outcome, care.OutcomeValid)
	gt.Equal(t, result.Stains, expected.Stains)
}

func TestDefault(t *testing.T) {
	en := care.Default(model.LocaleEN)
	fr := care.Default(model.LocaleFR)

	gt.Equal(t, en.Title, "Analyzed Garment")
	gt.Equal(t, fr.Title, "Vêtement analysé")
	gt.Equal(t, care.Default("de"), fr)

	// returned values are independent copies
	en.PreWash[0] = "mutated"
	gt.Equal(t, care.Default(model.LocaleEN).PreWash[0], "Check labels")
}

func TestExtractCandidates(t *testing.T) {
	testCases := []struct {
		name   string
		text   string
		expect []string
	}{
		{"none", "no json", nil},
		{"single", `a {"x":1} b`, []string{`{"x":1}`}},
		{"two objects", `{"a":1} and {"b":2}`, []string{`{"a":1}`, `{"a":1} and {"b":2}`}},
		{"unbalanced", `{"a":{"b":1} }}`, []string{`{"a":{"b":1} }`, `{"a":{"b":1} }}`}},
		{"never closed", `{"a":1`, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, care.ExtractCandidatesForTest(tc.text), tc.expect)
		})
	}
}

func TestFindObjectEnd(t *testing.T) {
	gt.Equal(t, care.FindObjectEndForTest(`{"a":"}"}`), 8)
	gt.Equal(t, care.FindObjectEndForTest(`{"a":"\"}"}`), 10)
	gt.Equal(t, care.FindObjectEndForTest(`{"a":{}`), -1)
}

func TestOutcomeString(t *testing.T) {
	gt.Equal(t, care.OutcomeValid.String(), "valid")
	gt.Equal(t, care.OutcomeRepaired.String(), "repaired")
	gt.Equal(t, care.OutcomeFallback.String(), "fallback")
}

func TestSchemaRequiresAllFields(t *testing.T) {
	s := care.Schema()
	gt.A(t, s.Required).Length(11)
	gt.A(t, s.Properties["summary"].Required).Length(4)
	gt.A(t, s.Properties["maintenance"].Required).Length(3)
	gt.A(t, s.Properties["environmentalImpact"].Required).Length(3)
}
