package care

import "github.com/m-mizutani/washp/pkg/model"

var defaults = map[model.Locale]model.AnalysisResult{
	model.LocaleEN: {
		Title: "Analyzed Garment",
		Summary: model.CareSummary{
			Program:     "Delicate",
			Temperature: "30°C",
			Spin:        "Low",
			Detergent:   "Neutral liquid",
		},
		Stains:            "No specific stains detected",
		PreWash:           []string{"Check labels", "Close buttons/fasteners", "Turn inside out"},
		DuringWash:        []string{"Use mild detergent", "Avoid mixing with other colors"},
		PostWash:          []string{"Air dry", "Avoid direct sunlight", "Iron at low temperature if necessary"},
		AdditionalTips:    []string{"Wash with similar colors", "Avoid tumble drying"},
		FabricType:        "Mixed fabric",
		ColorPreservation: []string{"Wash in cold water", "Avoid bleaching agents"},
		EnvironmentalImpact: model.EnvironmentalImpact{
			WaterUsage:       "Moderate",
			EnergyEfficiency: "Good (low temperature wash)",
			EcologicalTips:   []string{"Use a short cycle", "Fill the machine completely to save water"},
		},
		Maintenance: model.Maintenance{
			Frequency: "After 2-3 uses",
			Storage:   []string{"Hang on a hanger", "Store in a dry place"},
			Repairs:   []string{"Sew loose buttons as soon as possible", "Repair weakened seams"},
		},
	},
	model.LocaleFR: {
		Title: "Vêtement analysé",
		Summary: model.CareSummary{
			Program:     "Délicat",
			Temperature: "30°C",
			Spin:        "Basse",
			Detergent:   "Liquide neutre",
		},
		Stains:            "Aucune tache spécifique détectée",
		PreWash:           []string{"Vérifier les étiquettes", "Fermer les boutons/attaches", "Retourner le vêtement"},
		DuringWash:        []string{"Utiliser un détergent doux", "Éviter les mélanges avec d'autres couleurs"},
		PostWash:          []string{"Sécher à l'air libre", "Éviter l'exposition directe au soleil", "Repasser à basse température si nécessaire"},
		AdditionalTips:    []string{"Laver avec des couleurs similaires", "Éviter le sèche-linge"},
		FabricType:        "Tissu mixte",
		ColorPreservation: []string{"Laver à l'eau froide", "Éviter les agents de blanchiment"},
		EnvironmentalImpact: model.EnvironmentalImpact{
			WaterUsage:       "Modérée",
			EnergyEfficiency: "Bonne (lavage à basse température)",
			EcologicalTips:   []string{"Privilégier un cycle court", "Remplir complètement la machine pour économiser l'eau"},
		},
		Maintenance: model.Maintenance{
			Frequency: "Après 2-3 utilisations",
			Storage:   []string{"Suspendre sur un cintre", "Conserver dans un endroit sec"},
			Repairs:   []string{"Recoudre les boutons détachés dès que possible", "Réparer les coutures fragilisées"},
		},
	},
}

// Default returns a fresh copy of the built-in guidance for locale. Locales
// without a dedicated table use the French one.
func Default(locale model.Locale) *model.AnalysisResult {
	d, ok := defaults[locale]
	if !ok {
		d = defaults[model.DefaultLocale]
	}
	return d.Clone()
}
