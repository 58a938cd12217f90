package model

// ExtractionMode selects how extracted candidates are handled
type ExtractionMode string

const (
	ExtractionModePreview ExtractionMode = "preview"
	ExtractionModeDraft   ExtractionMode = "draft"
	ExtractionModeApprove ExtractionMode = "approve"
)

// CandidateStatus is the per-row outcome of an extraction batch
type CandidateStatus string

const (
	CandidateStatusPreview        CandidateStatus = "preview"
	CandidateStatusSaved          CandidateStatus = "saved"
	CandidateStatusZeroOccurrence CandidateStatus = "skipped_zero_occurrence"
	CandidateStatusDuplicate      CandidateStatus = "skipped_duplicate"
	CandidateStatusFailed         CandidateStatus = "failed"
)

// Candidate is one risk derived from a KRI table row
type Candidate struct {
	// Number is the 1-based position of the row within the batch
	Number         int
	KRIName        string
	Process        string
	Occurrence     string
	ZeroOccurrence bool
	Status         CandidateStatus
	Risk           *Risk
}

// ExtractionResult is the outcome of one extraction batch
type ExtractionResult struct {
	BatchID         string
	Mode            ExtractionMode
	AreaName        string
	ReportingPeriod string
	Candidates      []*Candidate
}

// Count returns the number of candidates with the given status
func (r *ExtractionResult) Count(status CandidateStatus) int {
	n := 0
	for _, c := range r.Candidates {
		if c.Status == status {
			n++
		}
	}
	return n
}

// Saved returns the persisted risks in row order
func (r *ExtractionResult) Saved() []*Risk {
	var risks []*Risk
	for _, c := range r.Candidates {
		if c.Status == CandidateStatusSaved {
			risks = append(risks, c.Risk)
		}
	}
	return risks
}
