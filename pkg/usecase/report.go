package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/service/report"
	"golang.org/x/sync/errgroup"
)

type ReportUseCase struct {
	repo  interfaces.Repository
	authz interfaces.Authorizer
	now   func() time.Time
}

func NewReportUseCase(repo interfaces.Repository, authz interfaces.Authorizer, now func() time.Time) *ReportUseCase {
	if now == nil {
		now = time.Now
	}
	return &ReportUseCase{
		repo:  repo,
		authz: authz,
		now:   now,
	}
}

// Dashboard aggregates the whole register
func (uc *ReportUseCase) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	risks, err := uc.repo.Risk().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}
	return model.NewDashboard(risks), nil
}

// ExportCSV writes the register export to w
func (uc *ReportUseCase) ExportCSV(ctx context.Context, w io.Writer) error {
	risks, err := uc.repo.Risk().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list risks")
	}
	if err := report.WriteCSV(w, risks); err != nil {
		return goerr.Wrap(err, "failed to export risks")
	}
	return nil
}

// OfficialReport assembles the official register for administrators and
// holders of the report permission
func (uc *ReportUseCase) OfficialReport(ctx context.Context, actor *model.Actor) (*model.OfficialReport, error) {
	isAdmin := uc.isAdministrator(ctx, actor)
	if !isAdmin && (uc.authz == nil || !uc.authz.HasPermission(ctx, actor, types.PermissionViewReport)) {
		return nil, goerr.Wrap(ErrAccessDenied, "official report requires permission",
			goerr.V(ActorIDKey, actorID(actor)),
			goerr.V("permission", types.PermissionViewReport))
	}

	var (
		cfg   *model.ReportConfiguration
		risks []*model.Risk
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		cfg, err = uc.repo.ReportConfig().GetOrCreate(egCtx)
		if err != nil {
			return goerr.Wrap(err, "failed to get report configuration")
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		risks, err = uc.repo.Risk().List(egCtx)
		if err != nil {
			return goerr.Wrap(err, "failed to list risks")
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &model.OfficialReport{
		Config:      cfg,
		Risks:       risks,
		GeneratedAt: uc.now(),
		GeneratedBy: actor.DisplayName(),
		IsAdmin:     isAdmin,
	}, nil
}

// OfficialReportPDF renders the official report as PDF
func (uc *ReportUseCase) OfficialReportPDF(ctx context.Context, actor *model.Actor) ([]byte, error) {
	rep, err := uc.OfficialReport(ctx, actor)
	if err != nil {
		return nil, err
	}

	data, err := report.RenderPDF(rep)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render official report")
	}
	return data, nil
}

// UpdateExecutiveSummary replaces the executive summary. Only administrators
// may edit it; blank text leaves the configuration unchanged.
func (uc *ReportUseCase) UpdateExecutiveSummary(ctx context.Context, actor *model.Actor, summary string) (*model.ReportConfiguration, error) {
	if !uc.isAdministrator(ctx, actor) {
		return nil, goerr.Wrap(ErrAccessDenied, "executive summary is editable by administrators only",
			goerr.V(ActorIDKey, actorID(actor)))
	}

	cfg, err := uc.repo.ReportConfig().GetOrCreate(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get report configuration")
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return cfg, nil
	}

	cfg.ExecutiveSummary = summary
	cfg.UpdatedAt = uc.now()
	updated, err := uc.repo.ReportConfig().Put(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update report configuration")
	}
	return updated, nil
}

func (uc *ReportUseCase) isAdministrator(ctx context.Context, actor *model.Actor) bool {
	if uc.authz == nil || actor == nil {
		return false
	}
	return uc.authz.IsAdministrator(ctx, actor)
}
