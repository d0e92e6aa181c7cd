package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/washp/pkg/model"
)

type headings struct {
	summary, program, temperature, spin, detergent string
	stains, fabric, preWash, duringWash, postWash   string
	tips, colors, environment, maintenance         string
	water, energy, frequency, storage, repairs     string
}

var localHeadings = map[model.Locale]headings{
	model.LocaleFR: {
		summary: "Résumé", program: "Programme", temperature: "Température", spin: "Essorage", detergent: "Détergent",
		stains: "Taches", fabric: "Type de tissu", preWash: "Avant le lavage", duringWash: "Pendant le lavage", postWash: "Après le lavage",
		tips: "Conseils", colors: "Préservation des couleurs", environment: "Impact environnemental", maintenance: "Entretien",
		water: "Eau", energy: "Énergie", frequency: "Fréquence", storage: "Rangement", repairs: "Réparations",
	},
	model.LocaleEN: {
		summary: "Summary", program: "Program", temperature: "Temperature", spin: "Spin", detergent: "Detergent",
		stains: "Stains", fabric: "Fabric type", preWash: "Before washing", duringWash: "During washing", postWash: "After washing",
		tips: "Tips", colors: "Color preservation", environment: "Environmental impact", maintenance: "Maintenance",
		water: "Water", energy: "Energy", frequency: "Frequency", storage: "Storage", repairs: "Repairs",
	},
}

func renderResult(w io.Writer, r *model.AnalysisResult, locale model.Locale) {
	h, ok := localHeadings[locale]
	if !ok {
		h = localHeadings[model.DefaultLocale]
	}

	fmt.Fprintf(w, "%s\n%s\n\n", r.Title, strings.Repeat("=", len([]rune(r.Title))))
	fmt.Fprintf(w, "%s\n", h.summary)
	fmt.Fprintf(w, "  %s: %s\n", h.program, r.Summary.Program)
	fmt.Fprintf(w, "  %s: %s\n", h.temperature, r.Summary.Temperature)
	fmt.Fprintf(w, "  %s: %s\n", h.spin, r.Summary.Spin)
	fmt.Fprintf(w, "  %s: %s\n\n", h.detergent, r.Summary.Detergent)

	fmt.Fprintf(w, "%s: %s\n", h.fabric, r.FabricType)
	fmt.Fprintf(w, "%s: %s\n", h.stains, r.Stains)

	renderList(w, h.preWash, r.PreWash)
	renderList(w, h.duringWash, r.DuringWash)
	renderList(w, h.postWash, r.PostWash)
	renderList(w, h.tips, r.AdditionalTips)
	renderList(w, h.colors, r.ColorPreservation)

	fmt.Fprintf(w, "\n%s\n", h.environment)
	fmt.Fprintf(w, "  %s: %s\n", h.water, r.EnvironmentalImpact.WaterUsage)
	fmt.Fprintf(w, "  %s: %s\n", h.energy, r.EnvironmentalImpact.EnergyEfficiency)
	for _, tip := range r.EnvironmentalImpact.EcologicalTips {
		fmt.Fprintf(w, "  - %s\n", tip)
	}

	fmt.Fprintf(w, "\n%s\n", h.maintenance)
	fmt.Fprintf(w, "  %s: %s\n", h.frequency, r.Maintenance.Frequency)
	renderList(w, "  "+h.storage, r.Maintenance.Storage)
	renderList(w, "  "+h.repairs, r.Maintenance.Repairs)
}

func renderList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", heading)
	indent := heading[:len(heading)-len(strings.TrimLeft(heading, " "))]
	for _, item := range items {
		fmt.Fprintf(w, "%s  - %s\n", indent, item)
	}
}
