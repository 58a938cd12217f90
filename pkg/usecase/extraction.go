package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/service/kri"
	"github.com/secmon-lab/oprisk/pkg/service/scoring"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
)

// maxPersistAttempts bounds how often a row is retried with a freshly bumped
// reference ID after the repository reported a duplicate
const maxPersistAttempts = 3

// ExtractionUseCase converts pasted KRI tables into risk candidates and
// optionally persists them
type ExtractionUseCase struct {
	repo    interfaces.Repository
	matrix  *model.RatingMatrix
	draft   *scoring.Scorer
	approve *scoring.Scorer
}

func NewExtractionUseCase(repo interfaces.Repository, matrix *model.RatingMatrix, draft, approve *scoring.Scorer) *ExtractionUseCase {
	return &ExtractionUseCase{
		repo:    repo,
		matrix:  matrix,
		draft:   draft,
		approve: approve,
	}
}

// Preview extracts candidates without persisting anything. Reference IDs are
// checked against the repository but not reserved.
func (uc *ExtractionUseCase) Preview(ctx context.Context, raw string) (*model.ExtractionResult, error) {
	return uc.Extract(ctx, nil, raw, model.ExtractionModePreview)
}

// SaveDrafts persists every occurring row as a draft risk
func (uc *ExtractionUseCase) SaveDrafts(ctx context.Context, actor *model.Actor, raw string) (*model.ExtractionResult, error) {
	return uc.Extract(ctx, actor, raw, model.ExtractionModeDraft)
}

// SaveAndApprove persists every occurring row as an approved risk with reduced
// residual levels
func (uc *ExtractionUseCase) SaveAndApprove(ctx context.Context, actor *model.Actor, raw string) (*model.ExtractionResult, error) {
	return uc.Extract(ctx, actor, raw, model.ExtractionModeApprove)
}

// Extract runs one extraction batch. Only blank input and tables without any
// usable row are reported as errors; per-row failures are recorded in the
// candidate status and the batch continues.
func (uc *ExtractionUseCase) Extract(ctx context.Context, actor *model.Actor, raw string, mode model.ExtractionMode) (*model.ExtractionResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, goerr.Wrap(ErrEmptyInput, "extraction input is empty")
	}

	scorer, err := uc.scorerFor(mode)
	if err != nil {
		return nil, err
	}

	table := kri.NewParser(scorer.Policy().MinFields).Parse(raw)
	if len(table.Rows) == 0 {
		return nil, goerr.Wrap(ErrNoRowsDetected, "no KRI rows found",
			goerr.V("area_name", table.AreaName),
			goerr.V("mode", mode))
	}

	result := &model.ExtractionResult{
		BatchID:         uuid.NewString(),
		Mode:            mode,
		AreaName:        table.AreaName,
		ReportingPeriod: table.ReportingPeriod,
	}
	logger := logging.From(ctx).With("batch_id", result.BatchID, "mode", mode)

	for i, row := range table.Rows {
		candidate := uc.buildCandidate(scorer, table.AreaName, i+1, row)
		if actor != nil {
			candidate.Risk.UpdatedBy = actor.ID
		}
		result.Candidates = append(result.Candidates, candidate)
		base := BaseReferenceID(table.AreaName, candidate.Number)

		if mode == model.ExtractionModePreview {
			ref, err := uniqueReferenceID(ctx, uc.repo.Risk(), base)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to generate reference id for preview", goerr.V(BatchIDKey, result.BatchID))
			}
			candidate.Risk.ReferenceID = ref
			candidate.Status = model.CandidateStatusPreview
			continue
		}

		if candidate.ZeroOccurrence {
			candidate.Status = model.CandidateStatusZeroOccurrence
			logger.Debug("skipped zero occurrence row", "row", candidate.Number, "kri", candidate.KRIName, "occurrence", candidate.Occurrence)
			continue
		}

		if mode == model.ExtractionModeDraft {
			candidate.Risk.MarkDraft()
		}

		candidate.Status = uc.persist(ctx, candidate, base)
		if candidate.Status != model.CandidateStatusSaved {
			logger.Debug("row was not saved", "row", candidate.Number, "kri", candidate.KRIName, "status", candidate.Status)
		}
	}

	observeExtraction(result)
	logger.Info("extraction batch completed",
		"area_name", result.AreaName,
		"rows", len(result.Candidates),
		"saved", result.Count(model.CandidateStatusSaved),
		"skipped_zero_occurrence", result.Count(model.CandidateStatusZeroOccurrence),
		"skipped_duplicate", result.Count(model.CandidateStatusDuplicate),
		"failed", result.Count(model.CandidateStatusFailed),
	)

	return result, nil
}

func (uc *ExtractionUseCase) scorerFor(mode model.ExtractionMode) (*scoring.Scorer, error) {
	switch mode {
	case model.ExtractionModePreview, model.ExtractionModeDraft:
		return uc.draft, nil
	case model.ExtractionModeApprove:
		return uc.approve, nil
	default:
		return nil, goerr.Wrap(ErrInvalidInput, "unknown extraction mode", goerr.V("mode", mode))
	}
}

func (uc *ExtractionUseCase) buildCandidate(scorer *scoring.Scorer, areaName string, number int, row kri.Row) *model.Candidate {
	description := row.Description
	if description == "" {
		description = row.Name
	}

	probability := scorer.Probability(row.Occurrence)
	impact := scorer.Impact(joinText(row.Name, row.Description, row.RelatedRisk))
	residualProbability, residualImpact := scorer.Residual(probability, impact)
	owner := scorer.Owner(areaName)

	risk := &model.Risk{
		AreaName:            areaName,
		Description:         description,
		CausedBy:            row.Name,
		Consequences:        row.RelatedRisk,
		RiskOwner:           owner,
		RiskCoordinatorName: scorer.Coordinator(joinText(areaName, row.Name, row.Description, row.RelatedRisk, row.Process)),
		InherentProbability: probability,
		InherentImpact:      impact,
		Controls:            scorer.Controls(areaName),
		ControlOwner:        owner,
		ResidualProbability: residualProbability,
		ResidualImpact:      residualImpact,
	}
	risk.Rate(uc.matrix)

	return &model.Candidate{
		Number:         number,
		KRIName:        row.Name,
		Process:        row.Process,
		Occurrence:     row.Occurrence,
		ZeroOccurrence: scorer.IsZeroOccurrence(row.Occurrence),
		Risk:           risk,
	}
}

// persist stores the candidate, resolving the reference ID against the
// repository at write time. Duplicates reported by the repository are retried
// with a new ID a bounded number of times.
func (uc *ExtractionUseCase) persist(ctx context.Context, candidate *model.Candidate, base string) model.CandidateStatus {
	logger := logging.From(ctx)

	for attempt := 0; attempt < maxPersistAttempts; attempt++ {
		ref, err := uniqueReferenceID(ctx, uc.repo.Risk(), base)
		if err != nil {
			logger.Warn("failed to resolve reference id", "error", err, "base", base)
			return model.CandidateStatusFailed
		}
		candidate.Risk.ReferenceID = ref

		created, err := uc.repo.Risk().Create(ctx, candidate.Risk)
		if err != nil {
			logger.Warn("failed to create risk", "error", err, ReferenceIDKey, ref)
			return model.CandidateStatusFailed
		}
		if created.Duplicate {
			logger.Debug("reference id taken concurrently, retrying", ReferenceIDKey, ref, "attempt", attempt+1)
			continue
		}

		candidate.Risk = created.Risk
		return model.CandidateStatusSaved
	}

	return model.CandidateStatusDuplicate
}

func joinText(parts ...string) string {
	return strings.Join(parts, " ")
}
