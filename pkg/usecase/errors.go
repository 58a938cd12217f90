package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Extraction input errors, shown to the user as validation messages
	ErrEmptyInput     = errors.New("no text was provided for extraction")
	ErrNoRowsDetected = errors.New("no risk rows were detected in the provided text")

	// Not found errors
	ErrRiskNotFound = errors.New("risk not found")

	// Status errors
	ErrNotDraft = errors.New("risk is not a draft")

	// Access control errors
	ErrAccessDenied = errors.New("access denied")

	// Other errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateReference = errors.New("reference id is already in use")
	ErrReferenceExhausted = errors.New("no free reference id suffix")
)

// Context keys for error values
const (
	RiskIDKey      = "risk_id"
	ReferenceIDKey = "reference_id"
	ActorIDKey     = "actor_id"
	BatchIDKey     = "batch_id"
)
