package interfaces

import (
	"context"

	"github.com/secmon-lab/oprisk/pkg/domain/model"
)

type RiskRepository interface {
	// Exists reports whether a risk with the exact reference ID is stored
	Exists(ctx context.Context, referenceID string) (bool, error)

	// Create stores a new risk with an auto-generated ID. A reference ID that is
	// already taken yields a result with Duplicate set instead of an error.
	Create(ctx context.Context, risk *model.Risk) (*model.CreateRiskResult, error)

	// Get retrieves a risk by ID
	Get(ctx context.Context, id int64) (*model.Risk, error)

	// List retrieves all risks, newest first
	List(ctx context.Context) ([]*model.Risk, error)

	// ListByDescriptionPrefix retrieves risks whose description starts with prefix
	ListByDescriptionPrefix(ctx context.Context, prefix string) ([]*model.Risk, error)

	// Update updates an existing risk. The reference ID is immutable.
	Update(ctx context.Context, risk *model.Risk) (*model.Risk, error)

	// DeleteAll removes every risk and returns how many were removed
	DeleteAll(ctx context.Context) (int, error)
}

type ReportConfigRepository interface {
	// GetOrCreate returns the singleton configuration, creating the default one
	// on first access
	GetOrCreate(ctx context.Context) (*model.ReportConfiguration, error)

	// Put replaces the singleton configuration
	Put(ctx context.Context, cfg *model.ReportConfiguration) (*model.ReportConfiguration, error)
}
