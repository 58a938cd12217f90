package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
)

var (
	// extractionRowsTotal counts extracted rows by pipeline mode and outcome
	extractionRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oprisk_extraction_rows_total",
		Help: "Total KRI rows processed by extraction mode and outcome",
	}, []string{"mode", "status"})

	// extractionBatchesTotal counts extraction batches by mode
	extractionBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oprisk_extraction_batches_total",
		Help: "Total extraction batches by mode",
	}, []string{"mode"})

	// approvedDraftsTotal counts drafts transitioned by bulk approval
	approvedDraftsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oprisk_approved_drafts_total",
		Help: "Total draft risks approved",
	})

	// clearedRisksTotal counts risks removed by clear operations
	clearedRisksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oprisk_cleared_risks_total",
		Help: "Total risks removed by clear operations",
	}, []string{"operation"})
)

func observeExtraction(result *model.ExtractionResult) {
	mode := string(result.Mode)
	extractionBatchesTotal.WithLabelValues(mode).Inc()
	for _, c := range result.Candidates {
		extractionRowsTotal.WithLabelValues(mode, string(c.Status)).Inc()
	}
}
