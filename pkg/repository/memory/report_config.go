package memory

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/oprisk/pkg/domain/model"
)

type reportConfigRepository struct {
	mu     sync.Mutex
	config *model.ReportConfiguration
}

func newReportConfigRepository() *reportConfigRepository {
	return &reportConfigRepository{}
}

func (r *reportConfigRepository) GetOrCreate(ctx context.Context) (*model.ReportConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		r.config = model.NewReportConfiguration()
		r.config.UpdatedAt = time.Now().UTC()
	}

	copied := *r.config
	return &copied, nil
}

func (r *reportConfigRepository) Put(ctx context.Context, cfg *model.ReportConfiguration) (*model.ReportConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *cfg
	stored.UpdatedAt = time.Now().UTC()
	r.config = &stored

	copied := stored
	return &copied, nil
}
