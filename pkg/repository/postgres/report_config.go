package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"gorm.io/gorm"
)

// reportConfigID is the fixed identity of the singleton row
const reportConfigID = 1

type reportConfigRow struct {
	ID               uint   `gorm:"primaryKey"`
	ExecutiveSummary string `gorm:"type:text"`
	UpdatedAt        time.Time
}

func (reportConfigRow) TableName() string {
	return "report_configurations"
}

type reportConfigRepository struct {
	db *gorm.DB
}

func (r *reportConfigRepository) GetOrCreate(ctx context.Context) (*model.ReportConfiguration, error) {
	var row reportConfigRow
	err := r.db.WithContext(ctx).
		Where(reportConfigRow{ID: reportConfigID}).
		Attrs(reportConfigRow{ExecutiveSummary: model.DefaultExecutiveSummary}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get or create report configuration")
	}

	return &model.ReportConfiguration{
		ExecutiveSummary: row.ExecutiveSummary,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}

func (r *reportConfigRepository) Put(ctx context.Context, cfg *model.ReportConfiguration) (*model.ReportConfiguration, error) {
	row := reportConfigRow{
		ID:               reportConfigID,
		ExecutiveSummary: cfg.ExecutiveSummary,
		UpdatedAt:        time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to put report configuration")
	}

	return &model.ReportConfiguration{
		ExecutiveSummary: row.ExecutiveSummary,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}
