package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/model"
	"github.com/secmon-lab/oprisk/pkg/usecase"
)

type extractMode int

const (
	extractPreview extractMode = iota
	extractDraft
	extractApprove
)

type extractRequest struct {
	Text string `json:"text"`
}

type candidateResponse struct {
	Number         int                   `json:"number"`
	KRIName        string                `json:"kri_name"`
	Process        string                `json:"process"`
	Occurrence     string                `json:"occurrence"`
	ZeroOccurrence bool                  `json:"zero_occurrence"`
	Status         model.CandidateStatus `json:"status"`
	Risk           riskResponse          `json:"risk"`
}

type extractResponse struct {
	BatchID               string               `json:"batch_id"`
	Mode                  model.ExtractionMode `json:"mode"`
	AreaName              string               `json:"area_name"`
	ReportingPeriod       string               `json:"reporting_period"`
	Saved                 int                  `json:"saved"`
	SkippedZeroOccurrence int                  `json:"skipped_zero_occurrence"`
	SkippedDuplicate      int                  `json:"skipped_duplicate"`
	Failed                int                  `json:"failed"`
	Candidates            []candidateResponse  `json:"candidates"`
}

func toExtractResponse(result *model.ExtractionResult) extractResponse {
	resp := extractResponse{
		BatchID:               result.BatchID,
		Mode:                  result.Mode,
		AreaName:              result.AreaName,
		ReportingPeriod:       result.ReportingPeriod,
		Saved:                 result.Count(model.CandidateStatusSaved),
		SkippedZeroOccurrence: result.Count(model.CandidateStatusZeroOccurrence),
		SkippedDuplicate:      result.Count(model.CandidateStatusDuplicate),
		Failed:                result.Count(model.CandidateStatusFailed),
		Candidates:            make([]candidateResponse, len(result.Candidates)),
	}
	for i, c := range result.Candidates {
		resp.Candidates[i] = candidateResponse{
			Number:         c.Number,
			KRIName:        c.KRIName,
			Process:        c.Process,
			Occurrence:     c.Occurrence,
			ZeroOccurrence: c.ZeroOccurrence,
			Status:         c.Status,
			Risk:           toRiskResponse(c.Risk),
		}
	}
	return resp
}

func (s *Server) extractHandler(mode extractMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := readExtractText(w, r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		ctx := r.Context()
		actor := actorFromContext(ctx)

		var result *model.ExtractionResult
		switch mode {
		case extractDraft:
			result, err = s.uc.Extraction.SaveDrafts(ctx, actor, text)
		case extractApprove:
			result, err = s.uc.Extraction.SaveAndApprove(ctx, actor, text)
		default:
			result, err = s.uc.Extraction.Preview(ctx, text)
		}
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, toExtractResponse(result))
	}
}

// readExtractText accepts either a JSON body or a form field named "text"
func readExtractText(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", goerr.Wrap(usecase.ErrInvalidInput, "failed to decode extraction request", goerr.V("cause", err.Error()))
		}
		return req.Text, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", goerr.Wrap(usecase.ErrInvalidInput, "failed to parse extraction form", goerr.V("cause", err.Error()))
	}
	return r.PostForm.Get("text"), nil
}
