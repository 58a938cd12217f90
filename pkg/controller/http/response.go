package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/usecase"
	"github.com/secmon-lab/oprisk/pkg/utils/errutil"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
	"github.com/secmon-lab/oprisk/pkg/utils/safe"
)

type errorResponse struct {
	Error string `json:"error"`
}

type countResponse struct {
	Count int `json:"count"`
}

type riskResponse struct {
	ID                  int64        `json:"id"`
	ReferenceID         string       `json:"reference_id"`
	AreaName            string       `json:"area_name"`
	Description         string       `json:"description"`
	CausedBy            string       `json:"caused_by"`
	Consequences        string       `json:"consequences"`
	RiskOwner           string       `json:"risk_owner"`
	RiskCoordinatorName string       `json:"risk_coordinator_name"`
	InherentProbability types.Level  `json:"inherent_probability"`
	InherentImpact      types.Level  `json:"inherent_impact"`
	InherentRating      types.Rating `json:"inherent_rating"`
	Controls            string       `json:"controls"`
	ControlDescription  string       `json:"control_description"`
	ControlOwner        string       `json:"control_owner"`
	ResidualProbability types.Level  `json:"residual_probability"`
	ResidualImpact      types.Level  `json:"residual_impact"`
	ResidualRating      types.Rating `json:"residual_rating"`
	IsDraft             bool         `json:"is_draft"`
	CreatedAt           *time.Time   `json:"created_at,omitempty"`
	UpdatedAt           *time.Time   `json:"updated_at,omitempty"`
	UpdatedBy           string       `json:"updated_by,omitempty"`
}

func toRiskResponse(r *model.Risk) riskResponse {
	resp := riskResponse{
		ID:                  r.ID,
		ReferenceID:         r.ReferenceID,
		AreaName:            r.AreaName,
		Description:         r.Description,
		CausedBy:            r.CausedBy,
		Consequences:        r.Consequences,
		RiskOwner:           r.RiskOwner,
		RiskCoordinatorName: r.RiskCoordinatorName,
		InherentProbability: r.InherentProbability,
		InherentImpact:      r.InherentImpact,
		InherentRating:      r.InherentRating,
		Controls:            r.Controls,
		ControlDescription:  r.ControlDescription(),
		ControlOwner:        r.ControlOwner,
		ResidualProbability: r.ResidualProbability,
		ResidualImpact:      r.ResidualImpact,
		ResidualRating:      r.ResidualRating,
		IsDraft:             r.IsDraft(),
		UpdatedBy:           r.UpdatedBy,
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = &r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		resp.UpdatedAt = &r.UpdatedAt
	}
	return resp
}

func toRiskResponses(risks []*model.Risk) []riskResponse {
	resp := make([]riskResponse, len(risks))
	for i, r := range risks {
		resp[i] = toRiskResponse(r)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	data, _ := json.Marshal(errorResponse{Error: msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(context.Background(), w, data)
}

// handleError maps use case errors to HTTP responses. Only unexpected errors
// reach errutil and Sentry.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrEmptyInput):
		writeError(w, http.StatusUnprocessableEntity, "Please paste the KRI report text to extract risks from.")
	case errors.Is(err, usecase.ErrNoRowsDetected):
		writeError(w, http.StatusUnprocessableEntity, "No risk rows could be detected in the pasted text.")
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrDuplicateReference),
		errors.Is(err, usecase.ErrNotDraft),
		errors.Is(err, model.ErrInvalidRiskInput):
		logging.From(r.Context()).Info("rejected request", "error", err)
		writeError(w, http.StatusBadRequest, rejectMessage(err))
	case errors.Is(err, usecase.ErrRiskNotFound):
		writeError(w, http.StatusNotFound, "Risk not found")
	case errors.Is(err, usecase.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "Access denied")
	default:
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
	}
}

func rejectMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrDuplicateReference):
		return usecase.ErrDuplicateReference.Error()
	case errors.Is(err, usecase.ErrNotDraft):
		return usecase.ErrNotDraft.Error()
	}

	msg := "Invalid risk input"
	var ge *goerr.Error
	if errors.As(err, &ge) {
		if fields, ok := ge.Values()["fields"].(string); ok && fields != "" {
			msg += ": " + fields
		}
	}
	return msg
}

func riskIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.Wrap(usecase.ErrInvalidInput, "invalid risk id", goerr.V("id", raw))
	}
	return id, nil
}
