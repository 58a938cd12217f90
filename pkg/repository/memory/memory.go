package memory

import (
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
)

type Memory struct {
	risk         *riskRepository
	reportConfig *reportConfigRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		risk:         newRiskRepository(),
		reportConfig: newReportConfigRepository(),
	}
}

func (m *Memory) Risk() interfaces.RiskRepository {
	return m.risk
}

func (m *Memory) ReportConfig() interfaces.ReportConfigRepository {
	return m.reportConfig
}

func (m *Memory) Close() error {
	return nil
}
