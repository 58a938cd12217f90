package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
)

type riskRepository struct {
	mu     sync.RWMutex
	risks  map[int64]*model.Risk
	refs   map[string]int64
	nextID int64
}

func newRiskRepository() *riskRepository {
	return &riskRepository{
		risks:  make(map[int64]*model.Risk),
		refs:   make(map[string]int64),
		nextID: 1,
	}
}

func (r *riskRepository) Exists(ctx context.Context, referenceID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.refs[referenceID]
	return exists, nil
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.CreateRiskResult, error) {
	if risk.ReferenceID == "" {
		return nil, goerr.New("reference ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// the uniqueness constraint is enforced under the write lock
	if _, exists := r.refs[risk.ReferenceID]; exists {
		return &model.CreateRiskResult{Duplicate: true}, nil
	}

	now := time.Now().UTC()
	created := risk.Copy()
	created.ID = r.nextID
	created.CreatedAt = now
	created.UpdatedAt = now
	r.nextID++

	r.risks[created.ID] = created
	r.refs[created.ReferenceID] = created.ID
	return &model.CreateRiskResult{Risk: created.Copy()}, nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risk, exists := r.risks[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
	}

	// Return a copy to prevent external modification
	return risk.Copy(), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	risks := make([]*model.Risk, 0, len(r.risks))
	for _, risk := range r.risks {
		risks = append(risks, risk.Copy())
	}
	sortNewestFirst(risks)

	return risks, nil
}

func (r *riskRepository) ListByDescriptionPrefix(ctx context.Context, prefix string) ([]*model.Risk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var risks []*model.Risk
	for _, risk := range r.risks {
		if strings.HasPrefix(risk.Description, prefix) {
			risks = append(risks, risk.Copy())
		}
	}
	sortNewestFirst(risks)

	return risks, nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.risks[risk.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", risk.ID))
	}

	updated := risk.Copy()
	updated.ReferenceID = existing.ReferenceID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.risks[updated.ID] = updated
	return updated.Copy(), nil
}

func (r *riskRepository) DeleteAll(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.risks)
	r.risks = make(map[int64]*model.Risk)
	r.refs = make(map[string]int64)
	return n, nil
}

func sortNewestFirst(risks []*model.Risk) {
	sort.Slice(risks, func(i, j int) bool {
		if !risks[i].CreatedAt.Equal(risks[j].CreatedAt) {
			return risks[i].CreatedAt.After(risks[j].CreatedAt)
		}
		return risks[i].ID > risks[j].ID
	})
}
