package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/usecase"
	"github.com/secmon-lab/oprisk/pkg/utils/safe"
)

type officialRiskResponse struct {
	riskResponse
	RiskCoordinator     string `json:"risk_coordinator"`
	InherentRatingColor string `json:"inherent_rating_color"`
	ResidualRatingColor string `json:"residual_rating_color"`
}

type officialReportResponse struct {
	ExecutiveSummary string                 `json:"executive_summary"`
	GeneratedAt      time.Time              `json:"generated_at"`
	GeneratedBy      string                 `json:"generated_by"`
	IsAdmin          bool                   `json:"is_admin"`
	Risks            []officialRiskResponse `json:"risks"`
}

func toOfficialReportResponse(rep *model.OfficialReport) officialReportResponse {
	resp := officialReportResponse{
		ExecutiveSummary: rep.Config.ExecutiveSummary,
		GeneratedAt:      rep.GeneratedAt,
		GeneratedBy:      rep.GeneratedBy,
		IsAdmin:          rep.IsAdmin,
		Risks:            make([]officialRiskResponse, len(rep.Risks)),
	}
	for i, r := range rep.Risks {
		resp.Risks[i] = officialRiskResponse{
			riskResponse:        toRiskResponse(r),
			RiskCoordinator:     r.Coordinator(),
			InherentRatingColor: r.InherentRating.BadgeColor(),
			ResidualRatingColor: r.ResidualRating.BadgeColor(),
		}
	}
	return resp
}

type executiveSummaryRequest struct {
	ExecutiveSummary string `json:"executive_summary"`
}

func (s *Server) officialReportHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := s.uc.Report.OfficialReport(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOfficialReportResponse(rep))
}

func (s *Server) updateExecutiveSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := readExecutiveSummary(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	ctx := r.Context()
	actor := actorFromContext(ctx)
	if _, err := s.uc.Report.UpdateExecutiveSummary(ctx, actor, summary); err != nil {
		handleError(w, r, err)
		return
	}

	rep, err := s.uc.Report.OfficialReport(ctx, actor)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOfficialReportResponse(rep))
}

func (s *Server) officialReportPDFHandler(w http.ResponseWriter, r *http.Request) {
	data, err := s.uc.Report.OfficialReportPDF(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="official_risk_register.pdf"`)
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, data)
}

func readExecutiveSummary(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req executiveSummaryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", goerr.Wrap(usecase.ErrInvalidInput, "failed to decode executive summary", goerr.V("cause", err.Error()))
		}
		return req.ExecutiveSummary, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", goerr.Wrap(usecase.ErrInvalidInput, "failed to parse executive summary form", goerr.V("cause", err.Error()))
	}
	return r.PostForm.Get("executive_summary"), nil
}
