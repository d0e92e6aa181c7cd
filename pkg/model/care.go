package model

import "slices"

// AnalysisResult is the structured care guidance produced for a garment.
// Field names on the wire follow the documents already stored by the mobile
// client, so they are camelCase in both JSON and Firestore.
type AnalysisResult struct {
	Title               string              `json:"title" firestore:"title"`
	Summary             CareSummary         `json:"summary" firestore:"summary"`
	Stains              string              `json:"stains" firestore:"stains"`
	PreWash             []string            `json:"preWash" firestore:"preWash"`
	DuringWash          []string            `json:"duringWash" firestore:"duringWash"`
	PostWash            []string            `json:"postWash" firestore:"postWash"`
	AdditionalTips      []string            `json:"additionalTips" firestore:"additionalTips"`
	FabricType          string              `json:"fabricType" firestore:"fabricType"`
	ColorPreservation   []string            `json:"colorPreservation" firestore:"colorPreservation"`
	EnvironmentalImpact EnvironmentalImpact `json:"environmentalImpact" firestore:"environmentalImpact"`
	Maintenance         Maintenance         `json:"maintenance" firestore:"maintenance"`
}

type CareSummary struct {
	Program     string `json:"program" firestore:"program"`
	Temperature string `json:"temperature" firestore:"temperature"`
	Spin        string `json:"spin" firestore:"spin"`
	Detergent   string `json:"detergent" firestore:"detergent"`
}

type EnvironmentalImpact struct {
	WaterUsage       string   `json:"waterUsage" firestore:"waterUsage"`
	EnergyEfficiency string   `json:"energyEfficiency" firestore:"energyEfficiency"`
	EcologicalTips   []string `json:"ecologicalTips" firestore:"ecologicalTips"`
}

type Maintenance struct {
	Frequency string   `json:"frequency" firestore:"frequency"`
	Storage   []string `json:"storage" firestore:"storage"`
	Repairs   []string `json:"repairs" firestore:"repairs"`
}

// Clone returns a deep copy. Results are shared between history items and
// callers, so anything that needs a modified variant must work on a copy.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}

	c := *r
	c.PreWash = slices.Clone(r.PreWash)
	c.DuringWash = slices.Clone(r.DuringWash)
	c.PostWash = slices.Clone(r.PostWash)
	c.AdditionalTips = slices.Clone(r.AdditionalTips)
	c.ColorPreservation = slices.Clone(r.ColorPreservation)
	c.EnvironmentalImpact.EcologicalTips = slices.Clone(r.EnvironmentalImpact.EcologicalTips)
	c.Maintenance.Storage = slices.Clone(r.Maintenance.Storage)
	c.Maintenance.Repairs = slices.Clone(r.Maintenance.Repairs)
	return &c
}
