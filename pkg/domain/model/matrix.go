package model

import "github.com/secmon-lab/oprisk/pkg/domain/types"

// RatingCell assigns a rating to one probability/impact combination
type RatingCell struct {
	Probability types.Level
	Impact      types.Level
	Rating      types.Rating
}

type matrixKey struct {
	probability types.Level
	impact      types.Level
}

// RatingMatrix is an immutable probability x impact lookup table. Combinations
// that are not listed, including unknown levels, fall back to a fixed rating.
type RatingMatrix struct {
	cells    map[matrixKey]types.Rating
	fallback types.Rating
}

// NewRatingMatrix builds a matrix from explicit cells. Later cells override
// earlier ones for the same combination.
func NewRatingMatrix(cells []RatingCell, fallback types.Rating) *RatingMatrix {
	m := &RatingMatrix{
		cells:    make(map[matrixKey]types.Rating, len(cells)),
		fallback: fallback,
	}
	for _, c := range cells {
		m.cells[matrixKey{probability: c.Probability, impact: c.Impact}] = c.Rating
	}
	return m
}

// DefaultRatingMatrix returns the standard 5x5 operational risk matrix
func DefaultRatingMatrix() *RatingMatrix {
	const (
		vl = types.LevelVeryLow
		l  = types.LevelLow
		m  = types.LevelMedium
		h  = types.LevelHigh
		vh = types.LevelVeryHigh
	)

	cell := func(p, i types.Level, r types.Rating) RatingCell {
		return RatingCell{Probability: p, Impact: i, Rating: r}
	}

	return NewRatingMatrix([]RatingCell{
		// Critical
		cell(vh, vh, types.RatingCritical),
		cell(vh, h, types.RatingCritical),
		cell(vh, m, types.RatingCritical),
		cell(h, vh, types.RatingCritical),
		cell(h, h, types.RatingCritical),
		cell(m, vh, types.RatingCritical),

		// Severe
		cell(vh, l, types.RatingSevere),
		cell(h, m, types.RatingSevere),
		cell(m, h, types.RatingSevere),
		cell(l, vh, types.RatingSevere),

		// Moderate
		cell(vh, vl, types.RatingModerate),
		cell(h, l, types.RatingModerate),
		cell(m, m, types.RatingModerate),
		cell(m, l, types.RatingModerate),
		cell(l, h, types.RatingModerate),
		cell(l, m, types.RatingModerate),
		cell(vl, vh, types.RatingModerate),
		cell(vl, h, types.RatingModerate),
	}, types.RatingSustainable)
}

// Rate returns the rating for the pair. It never fails.
func (m *RatingMatrix) Rate(probability, impact types.Level) types.Rating {
	if r, ok := m.cells[matrixKey{probability: probability, impact: impact}]; ok {
		return r
	}
	return m.fallback
}
