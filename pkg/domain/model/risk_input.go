package model

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// ErrInvalidRiskInput is returned when manual risk input fails validation
var ErrInvalidRiskInput = goerr.New("invalid risk input")

var riskValidate *validator.Validate

func init() {
	riskValidate = validator.New()
	_ = riskValidate.RegisterValidation("level", validateLevel)
}

func validateLevel(fl validator.FieldLevel) bool {
	return types.Level(fl.Field().String()).IsValid()
}

// RiskInput carries user-editable risk fields. Ratings are not part of the
// input; they are always derived.
type RiskInput struct {
	ReferenceID         string      `json:"reference_id" validate:"omitempty,max=40,excludes=/"`
	AreaName            string      `json:"area_name" validate:"max=100"`
	Description         string      `json:"description" validate:"required"`
	CausedBy            string      `json:"caused_by"`
	Consequences        string      `json:"consequences"`
	RiskOwner           string      `json:"risk_owner" validate:"required,max=100"`
	RiskCoordinatorName string      `json:"risk_coordinator_name" validate:"max=100"`
	InherentProbability types.Level `json:"inherent_probability" validate:"level"`
	InherentImpact      types.Level `json:"inherent_impact" validate:"level"`
	Controls            string      `json:"controls"`
	ControlOwner        string      `json:"control_owner" validate:"max=100"`
	ResidualProbability types.Level `json:"residual_probability" validate:"level"`
	ResidualImpact      types.Level `json:"residual_impact" validate:"level"`
}

// Validate checks the input fields
func (x *RiskInput) Validate() error {
	if err := riskValidate.Struct(x); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			return goerr.Wrap(ErrInvalidRiskInput, "risk input validation failed",
				goerr.V("fields", strings.Join(fields, ",")))
		}
		return goerr.Wrap(err, "failed to validate risk input")
	}
	return nil
}

// Apply copies the input onto the risk. ReferenceID is only applied when the
// risk has none yet.
func (x *RiskInput) Apply(r *Risk) {
	if r.ReferenceID == "" {
		r.ReferenceID = strings.TrimSpace(x.ReferenceID)
	}
	r.AreaName = strings.TrimSpace(x.AreaName)
	r.Description = x.Description
	r.CausedBy = x.CausedBy
	r.Consequences = x.Consequences
	r.RiskOwner = strings.TrimSpace(x.RiskOwner)
	r.RiskCoordinatorName = strings.TrimSpace(x.RiskCoordinatorName)
	r.InherentProbability = x.InherentProbability
	r.InherentImpact = x.InherentImpact
	r.Controls = x.Controls
	r.ControlOwner = strings.TrimSpace(x.ControlOwner)
	r.ResidualProbability = x.ResidualProbability
	r.ResidualImpact = x.ResidualImpact
}
