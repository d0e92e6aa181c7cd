package care

import "github.com/m-mizutani/washp/pkg/model"

// merge overlays the well-typed values of obj onto base. A leaf is taken from
// obj only when it has the expected shape; anything else keeps the base value.
func merge(base *model.AnalysisResult, obj map[string]any) *model.AnalysisResult {
	setString(obj, "title", &base.Title)
	if summary, ok := obj["summary"].(map[string]any); ok {
		setString(summary, "program", &base.Summary.Program)
		setString(summary, "temperature", &base.Summary.Temperature)
		setString(summary, "spin", &base.Summary.Spin)
		setString(summary, "detergent", &base.Summary.Detergent)
	}

	setString(obj, "stains", &base.Stains)
	setStrings(obj, "preWash", &base.PreWash)
	setStrings(obj, "duringWash", &base.DuringWash)
	setStrings(obj, "postWash", &base.PostWash)
	setStrings(obj, "additionalTips", &base.AdditionalTips)
	setString(obj, "fabricType", &base.FabricType)
	setStrings(obj, "colorPreservation", &base.ColorPreservation)

	if env, ok := obj["environmentalImpact"].(map[string]any); ok {
		setString(env, "waterUsage", &base.EnvironmentalImpact.WaterUsage)
		setString(env, "energyEfficiency", &base.EnvironmentalImpact.EnergyEfficiency)
		setStrings(env, "ecologicalTips", &base.EnvironmentalImpact.EcologicalTips)
	}

	if m, ok := obj["maintenance"].(map[string]any); ok {
		setString(m, "frequency", &base.Maintenance.Frequency)
		setStrings(m, "storage", &base.Maintenance.Storage)
		setStrings(m, "repairs", &base.Maintenance.Repairs)
	}

	return base
}

func setString(obj map[string]any, key string, dst *string) {
	if v, ok := obj[key].(string); ok {
		*dst = v
	}
}

func setStrings(obj map[string]any, key string, dst *[]string) {
	raw, ok := obj[key].([]any)
	if !ok {
		return
	}

	values := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return
		}
		values = append(values, s)
	}
	*dst = values
}
