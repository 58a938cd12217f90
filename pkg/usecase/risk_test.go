package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/repository/memory"
	"github.com/secmon-lab/oprisk/pkg/usecase"
)

func newRiskInput(area, description string) *model.RiskInput {
	return &model.RiskInput{
		AreaName:            area,
		Description:         description,
		RiskOwner:           "Head of IT",
		InherentProbability: types.LevelHigh,
		InherentImpact:      types.LevelVeryHigh,
		ResidualProbability: types.LevelLow,
		ResidualImpact:      types.LevelMedium,
	}
}

func TestRiskUseCase_CreateRisk(t *testing.T) {
	ctx := context.Background()
	actor := &model.Actor{ID: "bob"}

	t.Run("generates reference id and derives ratings", func(t *testing.T) {
		uc := usecase.New(memory.New())

		created, err := uc.Risk.CreateRisk(ctx, actor, newRiskInput("IT Department", "Server failure"))
		gt.NoError(t, err).Required()
		gt.Value(t, created.ReferenceID).Equal("RISK-IT-001")
		gt.Value(t, created.InherentRating).Equal(types.RatingCritical)
		gt.Value(t, created.ResidualRating).Equal(types.RatingModerate)
		gt.Value(t, created.UpdatedBy).Equal("bob")

		second, err := uc.Risk.CreateRisk(ctx, actor, newRiskInput("IT Department", "Network failure"))
		gt.NoError(t, err).Required()
		gt.Value(t, second.ReferenceID).Equal("RISK-IT-002")
	})

	t.Run("explicit reference id must be unused", func(t *testing.T) {
		uc := usecase.New(memory.New())

		input := newRiskInput("Finance", "Posting error")
		input.ReferenceID = "RISK-FIN-100"
		created, err := uc.Risk.CreateRisk(ctx, actor, input)
		gt.NoError(t, err).Required()
		gt.Value(t, created.ReferenceID).Equal("RISK-FIN-100")

		_, err = uc.Risk.CreateRisk(ctx, actor, input)
		gt.Error(t, err).Is(usecase.ErrDuplicateReference)
	})

	t.Run("invalid input", func(t *testing.T) {
		uc := usecase.New(memory.New())

		testCases := []struct {
			name  string
			input *model.RiskInput
		}{
			{name: "nil input", input: nil},
			{name: "missing description", input: newRiskInput("IT", "")},
			{name: "unknown level", input: func() *model.RiskInput {
				x := newRiskInput("IT", "Server failure")
				x.InherentImpact = "Extreme"
				return x
			}()},
			{name: "slash in reference id", input: func() *model.RiskInput {
				x := newRiskInput("IT", "Server failure")
				x.ReferenceID = "RISK/IT"
				return x
			}()},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := uc.Risk.CreateRisk(ctx, actor, tc.input)
				gt.Value(t, err).NotNil()
				gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput) || errors.Is(err, model.ErrInvalidRiskInput)).True()
			})
		}
	})
}

func TestRiskUseCase_UpdateRisk(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New())

	created, err := uc.Risk.CreateRisk(ctx, &model.Actor{ID: "bob"}, newRiskInput("IT Department", "Server failure"))
	gt.NoError(t, err).Required()

	input := newRiskInput("IT Department", "Server failure in data centre")
	input.ReferenceID = "RISK-OTHER-999"
	input.ResidualProbability = types.LevelVeryLow
	input.ResidualImpact = types.LevelVeryLow

	updated, err := uc.Risk.UpdateRisk(ctx, &model.Actor{ID: "alice"}, created.ID, input)
	gt.NoError(t, err).Required()
	gt.Value(t, updated.ReferenceID).Equal(created.ReferenceID)
	gt.Value(t, updated.Description).Equal("Server failure in data centre")
	gt.Value(t, updated.ResidualRating).Equal(types.RatingSustainable)
	gt.Value(t, updated.UpdatedBy).Equal("alice")

	_, err = uc.Risk.UpdateRisk(ctx, nil, 9999, input)
	gt.Error(t, err).Is(usecase.ErrRiskNotFound)

	_, err = uc.Risk.GetRisk(ctx, 9999)
	gt.Error(t, err).Is(usecase.ErrRiskNotFound)
}

func TestRiskUseCase_Drafts(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo)
	actor := &model.Actor{ID: "bob"}

	result, err := uc.Extraction.SaveDrafts(ctx, actor, kriReport)
	gt.NoError(t, err).Required()
	gt.Array(t, result.Saved()).Length(1).Required()
	draft := result.Saved()[0]

	approved, err := uc.Risk.CreateRisk(ctx, actor, newRiskInput("IT Department", "Approved risk"))
	gt.NoError(t, err).Required()

	t.Run("list drafts", func(t *testing.T) {
		drafts, err := uc.Risk.ListDrafts(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, drafts).Length(1).Required()
		gt.Value(t, drafts[0].ID).Equal(draft.ID)
	})

	t.Run("update draft keeps the tag", func(t *testing.T) {
		input := newRiskInput("IT Department", "Server failure at branch")
		updated, err := uc.Risk.UpdateDraft(ctx, actor, draft.ID, input)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Description).Equal("[DRAFT] Server failure at branch")
		gt.Value(t, updated.ReferenceID).Equal(draft.ReferenceID)
	})

	t.Run("update draft rejects approved risk", func(t *testing.T) {
		_, err := uc.Risk.UpdateDraft(ctx, actor, approved.ID, newRiskInput("IT", "x"))
		gt.Error(t, err).Is(usecase.ErrNotDraft)
	})

	t.Run("approve drafts strips the tag once", func(t *testing.T) {
		n, err := uc.Risk.ApproveDrafts(ctx, &model.Actor{ID: "alice"})
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(1)

		got, err := uc.Risk.GetRisk(ctx, draft.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Description).Equal("Server failure at branch")
		gt.Value(t, got.ReferenceID).Equal(draft.ReferenceID)
		gt.Value(t, got.UpdatedBy).Equal("alice")

		drafts, err := uc.Risk.ListDrafts(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, drafts).Length(0)

		n, err = uc.Risk.ApproveDrafts(ctx, nil)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(0)
	})
}

func TestRiskUseCase_ApproveDraftsStoredTag(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo)

	created, err := repo.Risk().Create(ctx, &model.Risk{
		ReferenceID: "RISK-IT-001",
		Description: "[DRAFT] [DRAFT] Server failure",
	})
	gt.NoError(t, err).Required()

	n, err := uc.Risk.ApproveDrafts(ctx, nil)
	gt.NoError(t, err).Required()
	gt.Number(t, n).Equal(1)

	got, err := repo.Risk().Get(ctx, created.Risk.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, got.Description).Equal("[DRAFT] Server failure")
	gt.Value(t, got.ReferenceID).Equal("RISK-IT-001")
}

func TestRiskUseCase_Clear(t *testing.T) {
	ctx := context.Background()
	actor := &model.Actor{ID: "alice"}

	seed := func(t *testing.T, uc *usecase.UseCases) {
		for _, desc := range []string{"Server failure", "Network failure"} {
			_, err := uc.Risk.CreateRisk(ctx, actor, newRiskInput("IT Department", desc))
			gt.NoError(t, err).Required()
		}
	}

	t.Run("clear all", func(t *testing.T) {
		uc := usecase.New(memory.New())
		seed(t, uc)

		n, err := uc.Risk.ClearAll(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(2)

		risks, err := uc.Risk.ListRisks(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, risks).Length(0)
	})

	t.Run("export and clear archives before deleting", func(t *testing.T) {
		archiver := &stubArchiver{}
		uc := usecase.New(memory.New(), usecase.WithArchiver(archiver))
		seed(t, uc)

		var buf bytes.Buffer
		n, err := uc.Risk.ExportAndClear(ctx, &buf)
		gt.NoError(t, err).Required()
		gt.Number(t, n).Equal(2)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		gt.Array(t, lines).Length(3).Required()
		gt.Value(t, strings.TrimSpace(lines[0])).Equal("ID,Description,Inherent Rating,Residual Rating")
		gt.Value(t, archiver.data).Equal(buf.Bytes())
		gt.String(t, archiver.name).Contains("risk-register-")

		risks, err := uc.Risk.ListRisks(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, risks).Length(0)
	})

	t.Run("nothing deleted when archiving fails", func(t *testing.T) {
		archiver := &stubArchiver{err: errors.New("bucket unavailable")}
		uc := usecase.New(memory.New(), usecase.WithArchiver(archiver))
		seed(t, uc)

		var buf bytes.Buffer
		_, err := uc.Risk.ExportAndClear(ctx, &buf)
		gt.Value(t, err).NotNil()
		gt.Number(t, buf.Len()).Equal(0)

		risks, err := uc.Risk.ListRisks(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, risks).Length(2)
	})
}
