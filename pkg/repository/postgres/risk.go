package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"gorm.io/gorm"
)

type riskRow struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement"`
	ReferenceID         string    `gorm:"size:64;not null;uniqueIndex"`
	AreaName            string    `gorm:"size:100"`
	Description         string    `gorm:"type:text;not null"`
	CausedBy            string    `gorm:"type:text"`
	Consequences        string    `gorm:"type:text"`
	RiskOwner           string    `gorm:"size:100"`
	RiskCoordinatorName string    `gorm:"size:100"`
	InherentProbability string    `gorm:"size:20"`
	InherentImpact      string    `gorm:"size:20"`
	InherentRating      string    `gorm:"size:20;index"`
	Controls            string    `gorm:"type:text"`
	ControlOwner        string    `gorm:"size:100"`
	ResidualProbability string    `gorm:"size:20"`
	ResidualImpact      string    `gorm:"size:20"`
	ResidualRating      string    `gorm:"size:20;index"`
	CreatedAt           time.Time `gorm:"index"`
	UpdatedAt           time.Time
	// nil when the updating actor is unknown or was removed
	UpdatedBy *string `gorm:"size:100"`
}

func (riskRow) TableName() string {
	return "risk_assessments"
}

func toRiskRow(r *model.Risk) *riskRow {
	row := &riskRow{
		ID:                  r.ID,
		ReferenceID:         r.ReferenceID,
		AreaName:            r.AreaName,
		Description:         r.Description,
		CausedBy:            r.CausedBy,
		Consequences:        r.Consequences,
		RiskOwner:           r.RiskOwner,
		RiskCoordinatorName: r.RiskCoordinatorName,
		InherentProbability: r.InherentProbability.String(),
		InherentImpact:      r.InherentImpact.String(),
		InherentRating:      r.InherentRating.String(),
		Controls:            r.Controls,
		ControlOwner:        r.ControlOwner,
		ResidualProbability: r.ResidualProbability.String(),
		ResidualImpact:      r.ResidualImpact.String(),
		ResidualRating:      r.ResidualRating.String(),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.UpdatedBy != "" {
		updatedBy := r.UpdatedBy
		row.UpdatedBy = &updatedBy
	}
	return row
}

func (row *riskRow) toModel() *model.Risk {
	r := &model.Risk{
		ID:                  row.ID,
		ReferenceID:         row.ReferenceID,
		AreaName:            row.AreaName,
		Description:         row.Description,
		CausedBy:            row.CausedBy,
		Consequences:        row.Consequences,
		RiskOwner:           row.RiskOwner,
		RiskCoordinatorName: row.RiskCoordinatorName,
		InherentProbability: types.Level(row.InherentProbability),
		InherentImpact:      types.Level(row.InherentImpact),
		InherentRating:      types.Rating(row.InherentRating),
		Controls:            row.Controls,
		ControlOwner:        row.ControlOwner,
		ResidualProbability: types.Level(row.ResidualProbability),
		ResidualImpact:      types.Level(row.ResidualImpact),
		ResidualRating:      types.Rating(row.ResidualRating),
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.UpdatedBy != nil {
		r.UpdatedBy = *row.UpdatedBy
	}
	return r
}

func toModels(rows []riskRow) []*model.Risk {
	risks := make([]*model.Risk, len(rows))
	for i := range rows {
		risks[i] = rows[i].toModel()
	}
	return risks
}

type riskRepository struct {
	db *gorm.DB
}

func (r *riskRepository) Exists(ctx context.Context, referenceID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&riskRow{}).
		Where("reference_id = ?", referenceID).
		Count(&count).Error; err != nil {
		return false, goerr.Wrap(err, "failed to check risk", goerr.V("reference_id", referenceID))
	}
	return count > 0, nil
}

func (r *riskRepository) Create(ctx context.Context, risk *model.Risk) (*model.CreateRiskResult, error) {
	if risk.ReferenceID == "" {
		return nil, goerr.New("reference ID is required")
	}

	now := time.Now().UTC()
	row := toRiskRow(risk)
	row.ID = 0
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &model.CreateRiskResult{Duplicate: true}, nil
		}
		return nil, goerr.Wrap(err, "failed to create risk", goerr.V("reference_id", risk.ReferenceID))
	}

	return &model.CreateRiskResult{Risk: row.toModel()}, nil
}

func (r *riskRepository) Get(ctx context.Context, id int64) (*model.Risk, error) {
	var row riskRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get risk", goerr.V("id", id))
	}
	return row.toModel(), nil
}

func (r *riskRepository) List(ctx context.Context) ([]*model.Risk, error) {
	var rows []riskRow
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list risks")
	}
	return toModels(rows), nil
}

func (r *riskRepository) ListByDescriptionPrefix(ctx context.Context, prefix string) ([]*model.Risk, error) {
	var rows []riskRow
	if err := r.db.WithContext(ctx).
		Where(`description LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list risks by prefix", goerr.V("prefix", prefix))
	}
	return toModels(rows), nil
}

func (r *riskRepository) Update(ctx context.Context, risk *model.Risk) (*model.Risk, error) {
	var updated *riskRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing riskRow
		if err := tx.First(&existing, risk.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return goerr.Wrap(ErrNotFound, "risk not found", goerr.V("id", risk.ID))
			}
			return goerr.Wrap(err, "failed to get risk", goerr.V("id", risk.ID))
		}

		row := toRiskRow(risk)
		row.ID = existing.ID
		row.ReferenceID = existing.ReferenceID
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = time.Now().UTC()

		if err := tx.Save(row).Error; err != nil {
			return goerr.Wrap(err, "failed to update risk", goerr.V("id", risk.ID))
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated.toModel(), nil
}

func (r *riskRepository) DeleteAll(ctx context.Context) (int, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&riskRow{})
	if result.Error != nil {
		return 0, goerr.Wrap(result.Error, "failed to delete risks")
	}
	return int(result.RowsAffected), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
