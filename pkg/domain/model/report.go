package model

import (
	"time"

	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// DefaultExecutiveSummary is the summary of a freshly created report configuration
const DefaultExecutiveSummary = "This document contains the official record of identified operational and financial risks."

// ReportConfiguration is the singleton holding editable official report text
type ReportConfiguration struct {
	ExecutiveSummary string
	UpdatedAt        time.Time
}

// NewReportConfiguration returns a configuration with the default summary
func NewReportConfiguration() *ReportConfiguration {
	return &ReportConfiguration{
		ExecutiveSummary: DefaultExecutiveSummary,
	}
}

// OfficialReport is the data rendered into the official risk register document
type OfficialReport struct {
	Config      *ReportConfiguration
	Risks       []*Risk
	GeneratedAt time.Time
	GeneratedBy string
	IsAdmin     bool
}

// RatingGrid counts risks per probability (outer key) and impact (inner key)
type RatingGrid map[types.Level]map[types.Level]int

// NewRatingGrid returns a grid with every cell initialised to zero
func NewRatingGrid() RatingGrid {
	g := make(RatingGrid, len(types.AllLevels()))
	for _, p := range types.AllLevels() {
		g[p] = make(map[types.Level]int, len(types.AllLevels()))
		for _, i := range types.AllLevels() {
			g[p][i] = 0
		}
	}
	return g
}

// Add increments the cell for the pair. Pairs outside the grid are ignored.
func (g RatingGrid) Add(probability, impact types.Level) {
	row, ok := g[probability]
	if !ok {
		return
	}
	if _, ok := row[impact]; !ok {
		return
	}
	row[impact]++
}

// Dashboard aggregates the register for the overview page
type Dashboard struct {
	Risks            []*Risk
	Total            int
	CriticalResidual int
	Drafts           int
	ByResidualRating map[types.Rating]int
	// Probabilities are ordered Very High first, Impacts Very Low first, matching
	// the on-screen matrix orientation.
	Probabilities []types.Level
	Impacts       []types.Level
	Inherent      RatingGrid
	Residual      RatingGrid
}

// NewDashboard aggregates the given risks
func NewDashboard(risks []*Risk) *Dashboard {
	levels := types.AllLevels()
	probabilities := make([]types.Level, len(levels))
	for i, lv := range levels {
		probabilities[len(levels)-1-i] = lv
	}

	d := &Dashboard{
		Risks:            risks,
		Total:            len(risks),
		ByResidualRating: make(map[types.Rating]int),
		Probabilities:    probabilities,
		Impacts:          levels,
		Inherent:         NewRatingGrid(),
		Residual:         NewRatingGrid(),
	}

	for _, r := range risks {
		d.Inherent.Add(r.InherentProbability, r.InherentImpact)
		d.Residual.Add(r.ResidualProbability, r.ResidualImpact)
		d.ByResidualRating[r.ResidualRating]++
		if r.ResidualRating == types.RatingCritical {
			d.CriticalResidual++
		}
		if r.IsDraft() {
			d.Drafts++
		}
	}

	return d
}
