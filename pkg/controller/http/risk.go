package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/usecase"
	"github.com/secmon-lab/oprisk/pkg/utils/safe"
)

const maxRequestBody = 1 << 20

type gridResponse struct {
	Probability types.Level `json:"probability"`
	Counts      []int       `json:"counts"`
}

type dashboardResponse struct {
	Total            int                  `json:"total"`
	CriticalResidual int                  `json:"critical_residual"`
	Drafts           int                  `json:"drafts"`
	ByResidualRating map[types.Rating]int `json:"by_residual_rating"`
	Impacts          []types.Level        `json:"impacts"`
	Inherent         []gridResponse       `json:"inherent"`
	Residual         []gridResponse       `json:"residual"`
	Risks            []riskResponse       `json:"risks"`
}

func toGridResponse(d *model.Dashboard, grid model.RatingGrid) []gridResponse {
	rows := make([]gridResponse, 0, len(d.Probabilities))
	for _, p := range d.Probabilities {
		row := gridResponse{Probability: p, Counts: make([]int, len(d.Impacts))}
		for i, impact := range d.Impacts {
			row.Counts[i] = grid[p][impact]
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	d, err := s.uc.Report.Dashboard(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dashboardResponse{
		Total:            d.Total,
		CriticalResidual: d.CriticalResidual,
		Drafts:           d.Drafts,
		ByResidualRating: d.ByResidualRating,
		Impacts:          d.Impacts,
		Inherent:         toGridResponse(d, d.Inherent),
		Residual:         toGridResponse(d, d.Residual),
		Risks:            toRiskResponses(d.Risks),
	})
}

func (s *Server) listRisksHandler(w http.ResponseWriter, r *http.Request) {
	risks, err := s.uc.Risk.ListRisks(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponses(risks))
}

func (s *Server) getRiskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := riskIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	risk, err := s.uc.Risk.GetRisk(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) createRiskHandler(w http.ResponseWriter, r *http.Request) {
	input, err := decodeRiskInput(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	risk, err := s.uc.Risk.CreateRisk(r.Context(), actorFromContext(r.Context()), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toRiskResponse(risk))
}

func (s *Server) updateRiskHandler(w http.ResponseWriter, r *http.Request) {
	id, err := riskIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	input, err := decodeRiskInput(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	risk, err := s.uc.Risk.UpdateRisk(r.Context(), actorFromContext(r.Context()), id, input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) listDraftsHandler(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.uc.Risk.ListDrafts(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponses(drafts))
}

func (s *Server) getDraftHandler(w http.ResponseWriter, r *http.Request) {
	id, err := riskIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	risk, err := s.uc.Risk.GetRisk(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !risk.IsDraft() {
		handleError(w, r, goerr.Wrap(usecase.ErrNotDraft, "risk is not a draft", goerr.V(usecase.RiskIDKey, id)))
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) updateDraftHandler(w http.ResponseWriter, r *http.Request) {
	id, err := riskIDParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	input, err := decodeRiskInput(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	risk, err := s.uc.Risk.UpdateDraft(r.Context(), actorFromContext(r.Context()), id, input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRiskResponse(risk))
}

func (s *Server) approveDraftsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.uc.Risk.ApproveDrafts(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, countResponse{Count: n})
}

func (s *Server) clearRisksHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.uc.Risk.ClearAll(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, countResponse{Count: n})
}

func (s *Server) exportCSVHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.uc.Report.ExportCSV(r.Context(), &buf); err != nil {
		handleError(w, r, err)
		return
	}
	writeCSV(w, r, "risk_register.csv", buf.Bytes())
}

func (s *Server) exportAndClearHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := s.uc.Risk.ExportAndClear(r.Context(), &buf); err != nil {
		handleError(w, r, err)
		return
	}
	writeCSV(w, r, "risk_register_final.csv", buf.Bytes())
}

func writeCSV(w http.ResponseWriter, r *http.Request, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, data)
}

func decodeRiskInput(w http.ResponseWriter, r *http.Request) (*model.RiskInput, error) {
	var input model.RiskInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&input); err != nil {
		return nil, goerr.Wrap(usecase.ErrInvalidInput, "failed to decode risk input", goerr.V("cause", err.Error()))
	}
	return &input, nil
}
