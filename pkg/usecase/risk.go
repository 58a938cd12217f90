package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/service/report"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
)

type RiskUseCase struct {
	repo     interfaces.Repository
	matrix   *model.RatingMatrix
	archiver interfaces.Archiver
	now      func() time.Time
}

func NewRiskUseCase(repo interfaces.Repository, matrix *model.RatingMatrix, archiver interfaces.Archiver, now func() time.Time) *RiskUseCase {
	if matrix == nil {
		matrix = model.DefaultRatingMatrix()
	}
	if now == nil {
		now = time.Now
	}
	return &RiskUseCase{
		repo:     repo,
		matrix:   matrix,
		archiver: archiver,
		now:      now,
	}
}

// CreateRisk stores a manually entered risk. A blank reference ID is generated
// from the area name; an explicit one must be unused.
func (uc *RiskUseCase) CreateRisk(ctx context.Context, actor *model.Actor, input *model.RiskInput) (*model.Risk, error) {
	if input == nil {
		return nil, goerr.Wrap(ErrInvalidInput, "risk input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk input")
	}

	risk := &model.Risk{}
	input.Apply(risk)
	risk.Rate(uc.matrix)
	if actor != nil {
		risk.UpdatedBy = actor.ID
	}

	if risk.ReferenceID != "" {
		created, err := uc.repo.Risk().Create(ctx, risk)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create risk", goerr.V(ReferenceIDKey, risk.ReferenceID))
		}
		if created.Duplicate {
			return nil, goerr.Wrap(ErrDuplicateReference, "reference id is taken", goerr.V(ReferenceIDKey, risk.ReferenceID))
		}
		return created.Risk, nil
	}

	base, err := uc.nextBaseReferenceID(ctx, risk.AreaName)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxPersistAttempts; attempt++ {
		ref, err := uniqueReferenceID(ctx, uc.repo.Risk(), base)
		if err != nil {
			return nil, err
		}
		risk.ReferenceID = ref

		created, err := uc.repo.Risk().Create(ctx, risk)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create risk", goerr.V(ReferenceIDKey, ref))
		}
		if !created.Duplicate {
			return created.Risk, nil
		}
	}

	return nil, goerr.Wrap(ErrDuplicateReference, "reference id kept colliding", goerr.V(ReferenceIDKey, base))
}

// nextBaseReferenceID numbers a manual entry after the risks already filed
// under the same area prefix
func (uc *RiskUseCase) nextBaseReferenceID(ctx context.Context, areaName string) (string, error) {
	risks, err := uc.repo.Risk().List(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to list risks")
	}

	prefix := "RISK-" + ReferencePrefix(areaName) + "-"
	seq := 1
	for _, r := range risks {
		if strings.HasPrefix(r.ReferenceID, prefix) {
			seq++
		}
	}
	return BaseReferenceID(areaName, seq), nil
}

// UpdateRisk edits a risk. The reference ID is immutable and ratings are
// recomputed.
func (uc *RiskUseCase) UpdateRisk(ctx context.Context, actor *model.Actor, id int64, input *model.RiskInput) (*model.Risk, error) {
	if input == nil {
		return nil, goerr.Wrap(ErrInvalidInput, "risk input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk input", goerr.V(RiskIDKey, id))
	}

	risk, err := uc.GetRisk(ctx, id)
	if err != nil {
		return nil, err
	}

	return uc.save(ctx, actor, risk, input, false)
}

// UpdateDraft edits a draft. The draft tag is kept even when the submitted
// description omits it.
func (uc *RiskUseCase) UpdateDraft(ctx context.Context, actor *model.Actor, id int64, input *model.RiskInput) (*model.Risk, error) {
	if input == nil {
		return nil, goerr.Wrap(ErrInvalidInput, "risk input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid risk input", goerr.V(RiskIDKey, id))
	}

	risk, err := uc.GetRisk(ctx, id)
	if err != nil {
		return nil, err
	}
	if !risk.IsDraft() {
		return nil, goerr.Wrap(ErrNotDraft, "risk is already approved",
			goerr.V(RiskIDKey, id),
			goerr.V(ReferenceIDKey, risk.ReferenceID))
	}

	return uc.save(ctx, actor, risk, input, true)
}

func (uc *RiskUseCase) save(ctx context.Context, actor *model.Actor, risk *model.Risk, input *model.RiskInput, draft bool) (*model.Risk, error) {
	input.Apply(risk)
	if draft {
		risk.MarkDraft()
	}
	risk.Rate(uc.matrix)
	risk.UpdatedBy = ""
	if actor != nil {
		risk.UpdatedBy = actor.ID
	}

	updated, err := uc.repo.Risk().Update(ctx, risk)
	if err != nil {
		return nil, uc.wrapNotFound(err, risk.ID, "failed to update risk")
	}
	return updated, nil
}

func (uc *RiskUseCase) GetRisk(ctx context.Context, id int64) (*model.Risk, error) {
	risk, err := uc.repo.Risk().Get(ctx, id)
	if err != nil {
		return nil, uc.wrapNotFound(err, id, "failed to get risk")
	}
	return risk, nil
}

// ListRisks returns every risk, newest first
func (uc *RiskUseCase) ListRisks(ctx context.Context) ([]*model.Risk, error) {
	risks, err := uc.repo.Risk().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}
	return risks, nil
}

// ListDrafts returns risks still carrying the draft tag
func (uc *RiskUseCase) ListDrafts(ctx context.Context) ([]*model.Risk, error) {
	risks, err := uc.repo.Risk().ListByDescriptionPrefix(ctx, model.DraftTag)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list draft risks")
	}
	return risks, nil
}

// ApproveDrafts strips the draft tag from every draft and returns how many
// were approved. A failed update is logged and does not stop the batch.
func (uc *RiskUseCase) ApproveDrafts(ctx context.Context, actor *model.Actor) (int, error) {
	drafts, err := uc.ListDrafts(ctx)
	if err != nil {
		return 0, err
	}

	logger := logging.From(ctx)
	approved := 0
	for _, risk := range drafts {
		if !risk.Approve() {
			continue
		}
		risk.Rate(uc.matrix)
		if actor != nil {
			risk.UpdatedBy = actor.ID
		}

		if _, err := uc.repo.Risk().Update(ctx, risk); err != nil {
			logger.Warn("failed to approve draft", "error", err, ReferenceIDKey, risk.ReferenceID)
			continue
		}
		approved++
	}

	approvedDraftsTotal.Add(float64(approved))
	logger.Info("drafts approved", "approved", approved, "drafts", len(drafts), ActorIDKey, actorID(actor))
	return approved, nil
}

// ClearAll deletes every risk
func (uc *RiskUseCase) ClearAll(ctx context.Context) (int, error) {
	n, err := uc.repo.Risk().DeleteAll(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to clear risks")
	}

	clearedRisksTotal.WithLabelValues("clear").Add(float64(n))
	logging.From(ctx).Info("risk register cleared", "deleted", n)
	return n, nil
}

// ExportAndClear writes the register CSV to w, archives it when an archiver
// is configured, and only then deletes every risk. Nothing is deleted when
// writing or archiving fails.
func (uc *RiskUseCase) ExportAndClear(ctx context.Context, w io.Writer) (int, error) {
	risks, err := uc.ListRisks(ctx)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, risks); err != nil {
		return 0, goerr.Wrap(err, "failed to build register export")
	}

	if uc.archiver != nil {
		name := fmt.Sprintf("risk-register-%s.csv", uc.now().UTC().Format("20060102-150405"))
		location, err := uc.archiver.Archive(ctx, name, buf.Bytes())
		if err != nil {
			return 0, goerr.Wrap(err, "failed to archive register export", goerr.V("name", name))
		}
		logging.From(ctx).Info("register export archived", "location", location, "risks", len(risks))
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return 0, goerr.Wrap(err, "failed to write register export")
	}

	n, err := uc.repo.Risk().DeleteAll(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to clear risks after export")
	}

	clearedRisksTotal.WithLabelValues("export_clear").Add(float64(n))
	logging.From(ctx).Info("risk register exported and cleared", "deleted", n)
	return n, nil
}

func (uc *RiskUseCase) wrapNotFound(err error, id int64, msg string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return goerr.Wrap(ErrRiskNotFound, msg, goerr.V(RiskIDKey, id))
	}
	return goerr.Wrap(err, msg, goerr.V(RiskIDKey, id))
}

func actorID(actor *model.Actor) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
