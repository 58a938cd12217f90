package usecase

import (
	"time"

	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/model/config"
	"github.com/secmon-lab/oprisk/pkg/service/scoring"
)

type UseCases struct {
	repo          interfaces.Repository
	authz         interfaces.Authorizer
	archiver      interfaces.Archiver
	matrix        *model.RatingMatrix
	draftPolicy   *config.ScoringPolicy
	approvePolicy *config.ScoringPolicy
	now           func() time.Time

	Risk       *RiskUseCase
	Extraction *ExtractionUseCase
	Report     *ReportUseCase
}

type Option func(*UseCases)

// WithAuthorizer sets the oracle used for report access decisions
func WithAuthorizer(authz interfaces.Authorizer) Option {
	return func(uc *UseCases) {
		uc.authz = authz
	}
}

// WithArchiver enables archiving of export-and-clear CSV files
func WithArchiver(archiver interfaces.Archiver) Option {
	return func(uc *UseCases) {
		uc.archiver = archiver
	}
}

// WithScoringPolicies replaces the draft and approve scoring policies. A nil
// policy keeps the built-in default.
func WithScoringPolicies(draft, approve *config.ScoringPolicy) Option {
	return func(uc *UseCases) {
		if draft != nil {
			uc.draftPolicy = draft
		}
		if approve != nil {
			uc.approvePolicy = approve
		}
	}
}

func WithRatingMatrix(matrix *model.RatingMatrix) Option {
	return func(uc *UseCases) {
		uc.matrix = matrix
	}
}

// WithClock overrides the time source used for report timestamps and archive
// names
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:          repo,
		matrix:        model.DefaultRatingMatrix(),
		draftPolicy:   config.DraftPolicy(),
		approvePolicy: config.ApprovePolicy(),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Risk = NewRiskUseCase(repo, uc.matrix, uc.archiver, uc.now)
	uc.Extraction = NewExtractionUseCase(repo, uc.matrix, scoring.New(uc.draftPolicy), scoring.New(uc.approvePolicy))
	uc.Report = NewReportUseCase(repo, uc.authz, uc.now)

	return uc
}
