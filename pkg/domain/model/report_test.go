package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

func TestNewReportConfiguration(t *testing.T) {
	cfg := model.NewReportConfiguration()
	gt.Value(t, cfg.ExecutiveSummary).Equal(model.DefaultExecutiveSummary)
}

func TestRatingGrid_Add(t *testing.T) {
	g := model.NewRatingGrid()
	gt.Value(t, len(g)).Equal(5)

	g.Add(types.LevelHigh, types.LevelLow)
	g.Add(types.LevelHigh, types.LevelLow)
	g.Add("Extreme", types.LevelLow)
	g.Add(types.LevelHigh, "")

	gt.Value(t, g[types.LevelHigh][types.LevelLow]).Equal(2)
	gt.Value(t, g[types.LevelLow][types.LevelHigh]).Equal(0)
	_, ok := g["Extreme"]
	gt.Bool(t, ok).False()
}

func TestNewDashboard(t *testing.T) {
	matrix := model.DefaultRatingMatrix()
	newRisk := func(desc string, ip, ii, rp, ri types.Level) *model.Risk {
		r := &model.Risk{
			Description:         desc,
			InherentProbability: ip,
			InherentImpact:      ii,
			ResidualProbability: rp,
			ResidualImpact:      ri,
		}
		r.Rate(matrix)
		return r
	}

	risks := []*model.Risk{
		newRisk("[DRAFT] Server failure", types.LevelVeryHigh, types.LevelVeryHigh, types.LevelVeryHigh, types.LevelHigh),
		newRisk("Card fraud", types.LevelHigh, types.LevelVeryHigh, types.LevelLow, types.LevelLow),
		newRisk("Late postings", types.LevelLow, types.LevelLow, types.LevelLow, types.LevelLow),
	}

	d := model.NewDashboard(risks)
	gt.Value(t, d.Total).Equal(3)
	gt.Value(t, d.Drafts).Equal(1)
	gt.Value(t, d.CriticalResidual).Equal(1)
	gt.Value(t, d.ByResidualRating[types.RatingCritical]).Equal(1)
	gt.Value(t, d.ByResidualRating[types.RatingSustainable]).Equal(2)
	gt.Value(t, d.Inherent[types.LevelVeryHigh][types.LevelVeryHigh]).Equal(1)
	gt.Value(t, d.Residual[types.LevelLow][types.LevelLow]).Equal(2)

	gt.Value(t, d.Probabilities[0]).Equal(types.LevelVeryHigh)
	gt.Value(t, d.Impacts[0]).Equal(types.LevelVeryLow)
}

func TestNewDashboard_Empty(t *testing.T) {
	d := model.NewDashboard(nil)
	gt.Value(t, d.Total).Equal(0)
	gt.Value(t, d.Inherent[types.LevelMedium][types.LevelMedium]).Equal(0)
}
