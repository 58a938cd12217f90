package usecase_test

import (
	"context"

	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

const kriReport = "IT Department Reporting Period: Q1\n" +
	"Key Risk Indicator\tKRI Description\tRelated Risk\tProcess\tOccurrence\n" +
	"System Outage\tServer failure\tService disruption\tBanking Ops\t3"

// racingRepository lets another writer claim the reference ID between the
// existence check and the write for the first creates
type racingRepository struct {
	interfaces.Repository
	risk *racingRiskRepository
}

func (r *racingRepository) Risk() interfaces.RiskRepository {
	return r.risk
}

type racingRiskRepository struct {
	interfaces.RiskRepository
	duplicates int
	failures   int
	attempts   []string
}

func (r *racingRiskRepository) Create(ctx context.Context, risk *model.Risk) (*model.CreateRiskResult, error) {
	r.attempts = append(r.attempts, risk.ReferenceID)
	if r.failures > 0 {
		r.failures--
		return nil, context.DeadlineExceeded
	}
	if r.duplicates > 0 {
		r.duplicates--
		if _, err := r.RiskRepository.Create(ctx, &model.Risk{ReferenceID: risk.ReferenceID, Description: "claimed concurrently"}); err != nil {
			return nil, err
		}
		return r.RiskRepository.Create(ctx, risk)
	}
	return r.RiskRepository.Create(ctx, risk)
}

func newRacingRepository(base interfaces.Repository, duplicates, failures int) *racingRepository {
	return &racingRepository{
		Repository: base,
		risk: &racingRiskRepository{
			RiskRepository: base.Risk(),
			duplicates:     duplicates,
			failures:       failures,
		},
	}
}

type stubArchiver struct {
	name string
	data []byte
	err  error
}

func (a *stubArchiver) Archive(ctx context.Context, name string, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.name = name
	a.data = append([]byte(nil), data...)
	return "memory://" + name, nil
}

type stubAuthorizer struct {
	admins      map[string]bool
	permissions map[string]bool
}

func (a *stubAuthorizer) Lookup(ctx context.Context, actorID string) (*model.Actor, error) {
	return &model.Actor{ID: actorID}, nil
}

func (a *stubAuthorizer) IsAdministrator(ctx context.Context, actor *model.Actor) bool {
	return actor != nil && a.admins[actor.ID]
}

func (a *stubAuthorizer) IsStaff(ctx context.Context, actor *model.Actor) bool {
	return actor != nil
}

func (a *stubAuthorizer) HasPermission(ctx context.Context, actor *model.Actor, perm types.Permission) bool {
	return actor != nil && a.permissions[actor.ID]
}
