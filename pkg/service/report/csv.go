package report

import (
	"encoding/csv"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
)

// CSVHeader is the header row of the register export
var CSVHeader = []string{"ID", "Description", "Inherent Rating", "Residual Rating"}

// WriteCSV writes the register export for the given risks
func WriteCSV(w io.Writer, risks []*model.Risk) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return goerr.Wrap(err, "failed to write CSV header")
	}

	for _, r := range risks {
		record := []string{
			r.ReferenceID,
			r.Description,
			r.InherentRating.String(),
			r.ResidualRating.String(),
		}
		if err := cw.Write(record); err != nil {
			return goerr.Wrap(err, "failed to write CSV record", goerr.V("reference_id", r.ReferenceID))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush CSV")
	}
	return nil
}
