package model

import (
	"strings"
	"time"

	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// DraftTag marks a risk as a draft awaiting approval. A risk is a draft iff its
// description begins with this literal tag.
const DraftTag = "[DRAFT] "

// DefaultControlDescription is shown when a risk has no recorded controls
const DefaultControlDescription = "Standard Controls"

// Risk is a single entry of the operational risk register
type Risk struct {
	ID          int64
	ReferenceID string
	AreaName    string

	Description  string
	CausedBy     string
	Consequences string

	RiskOwner           string
	RiskCoordinatorName string

	InherentProbability types.Level
	InherentImpact      types.Level
	InherentRating      types.Rating

	Controls     string
	ControlOwner string

	ResidualProbability types.Level
	ResidualImpact      types.Level
	ResidualRating      types.Rating

	CreatedAt time.Time
	UpdatedAt time.Time
	// UpdatedBy is the ID of the last actor who modified the risk. Empty when
	// unknown or when the actor no longer exists.
	UpdatedBy string
}

// IsDraft reports whether the risk still carries the draft tag
func (r *Risk) IsDraft() bool {
	return strings.HasPrefix(r.Description, DraftTag)
}

// MarkDraft prefixes the description with the draft tag unless already present
func (r *Risk) MarkDraft() {
	if !r.IsDraft() {
		r.Description = DraftTag + r.Description
	}
}

// Approve strips exactly one draft tag from the description. It returns false
// when the risk was not a draft.
func (r *Risk) Approve() bool {
	if !r.IsDraft() {
		return false
	}
	r.Description = strings.TrimPrefix(r.Description, DraftTag)
	return true
}

// Rate recomputes both ratings from the current probability/impact pairs.
// Ratings are never taken from callers.
func (r *Risk) Rate(matrix *RatingMatrix) {
	r.InherentRating = matrix.Rate(r.InherentProbability, r.InherentImpact)
	r.ResidualRating = matrix.Rate(r.ResidualProbability, r.ResidualImpact)
}

// ControlDescription returns the controls text or the standard fallback
func (r *Risk) ControlDescription() string {
	if r.Controls == "" {
		return DefaultControlDescription
	}
	return r.Controls
}

// Coordinator returns the coordinator name or "-" when none is assigned
func (r *Risk) Coordinator() string {
	if r.RiskCoordinatorName == "" {
		return "-"
	}
	return r.RiskCoordinatorName
}

// ShortDescription truncates the description to 40 characters for listings
func (r *Risk) ShortDescription() string {
	runes := []rune(r.Description)
	if len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return r.Description
}

// Copy returns a shallow copy of the risk
func (r *Risk) Copy() *Risk {
	copied := *r
	return &copied
}

// CreateRiskResult is the outcome of a repository create. Duplicate is set when
// the reference ID was already taken at write time; Risk is nil in that case.
type CreateRiskResult struct {
	Risk      *Risk
	Duplicate bool
}
