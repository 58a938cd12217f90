// Package postgres stores the register in PostgreSQL through gorm. The unique
// index on reference_id backs the duplicate outcome of Create.
package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Postgres struct {
	db           *gorm.DB
	risk         *riskRepository
	reportConfig *reportConfigRepository
}

var _ interfaces.Repository = &Postgres{}

type config struct {
	maxAttempts int
	retryWait   time.Duration
}

type Option func(*config)

// WithRetry sets how many times the initial connection is attempted
func WithRetry(maxAttempts int, wait time.Duration) Option {
	return func(c *config) {
		c.maxAttempts = maxAttempts
		c.retryWait = wait
	}
}

// New connects to PostgreSQL and migrates the schema
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	cfg := &config{
		maxAttempts: 5,
		retryWait:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var db *gorm.DB
	var err error
	for i := 1; i <= cfg.maxAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			break
		}

		logging.From(ctx).Warn("failed to connect to database",
			"attempt", i,
			"max_attempts", cfg.maxAttempts,
			"error", err.Error())

		if i == cfg.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, goerr.Wrap(ctx.Err(), "interrupted while connecting to database")
		case <-time.After(cfg.retryWait):
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to database", goerr.V("attempts", cfg.maxAttempts))
	}

	if err := db.WithContext(ctx).AutoMigrate(&riskRow{}, &reportConfigRow{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate schema")
	}

	return &Postgres{
		db:           db,
		risk:         &riskRepository{db: db},
		reportConfig: &reportConfigRepository{db: db},
	}, nil
}

func (p *Postgres) Risk() interfaces.RiskRepository {
	return p.risk
}

func (p *Postgres) ReportConfig() interfaces.ReportConfigRepository {
	return p.reportConfig
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get sql.DB")
	}
	return sqlDB.Close()
}
