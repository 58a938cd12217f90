package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	server "github.com/secmon-lab/oprisk/pkg/controller/http"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
	"github.com/secmon-lab/oprisk/pkg/repository/memory"
	"github.com/secmon-lab/oprisk/pkg/service/authz"
	"github.com/secmon-lab/oprisk/pkg/usecase"
)

const kriReport = "IT Department Reporting Period: Q1\n" +
	"Key Risk Indicator\tKRI Description\tRelated Risk\tProcess\tOccurrence\n" +
	"System Outage\tServer failure\tService disruption\tBanking Ops\t3\n" +
	"Backup failure\tNightly backup not run\tData loss\tIT Ops\t0"

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	a := authz.NewStatic([]authz.User{
		{ID: "alice", Name: "Alice", Admin: true},
		{ID: "bob", Name: "Bob", Staff: true},
		{ID: "carol", Name: "Carol", Permissions: []types.Permission{types.PermissionViewReport}},
		{ID: "dave", Name: "Dave"},
	})
	uc := usecase.New(memory.New(), usecase.WithAuthorizer(a))
	return server.New(uc, a, server.WithMetrics(false))
}

func do(t *testing.T, srv http.Handler, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	switch v := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case url.Values:
		req = httptest.NewRequest(method, path, strings.NewReader(v.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		data, err := json.Marshal(v)
		gt.NoError(t, err).Required()
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(server.ActorHeader, actor)
	}

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &v)).Required()
	return v
}

type extractResult struct {
	AreaName              string `json:"area_name"`
	ReportingPeriod       string `json:"reporting_period"`
	Saved                 int    `json:"saved"`
	SkippedZeroOccurrence int    `json:"skipped_zero_occurrence"`
	Candidates            []struct {
		Number int    `json:"number"`
		Status string `json:"status"`
		Risk   struct {
			ID          int64  `json:"id"`
			ReferenceID string `json:"reference_id"`
			Description string `json:"description"`
		} `json:"risk"`
	} `json:"candidates"`
}

func TestActorResolution(t *testing.T) {
	srv := newTestServer(t)

	gt.Number(t, do(t, srv, http.MethodGet, "/", "", nil).Code).Equal(http.StatusUnauthorized)
	gt.Number(t, do(t, srv, http.MethodGet, "/", "mallory", nil).Code).Equal(http.StatusUnauthorized)
	gt.Number(t, do(t, srv, http.MethodGet, "/", "dave", nil).Code).Equal(http.StatusOK)
}

func TestExtractEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("preview is open to any user", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/ai-extract", "dave", map[string]string{"text": kriReport})
		gt.Number(t, w.Code).Equal(http.StatusOK)

		resp := decode[extractResult](t, w)
		gt.Value(t, resp.AreaName).Equal("IT Department")
		gt.Value(t, resp.ReportingPeriod).Equal("Q1")
		gt.Array(t, resp.Candidates).Length(2).Required()
		gt.Value(t, resp.Candidates[0].Risk.ReferenceID).Equal("RISK-IT-001")
		gt.Value(t, resp.Candidates[0].Status).Equal("preview")
	})

	t.Run("form submission", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/ai-extract", "dave", url.Values{"text": {kriReport}})
		gt.Number(t, w.Code).Equal(http.StatusOK)
	})

	t.Run("empty and unparseable input", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/ai-extract", "dave", map[string]string{"text": "  "})
		gt.Number(t, w.Code).Equal(http.StatusUnprocessableEntity)
		gt.String(t, decode[map[string]string](t, w)["error"]).Contains("paste")

		w = do(t, srv, http.MethodPost, "/ai-extract", "dave", map[string]string{"text": "just a title"})
		gt.Number(t, w.Code).Equal(http.StatusUnprocessableEntity)
		gt.String(t, decode[map[string]string](t, w)["error"]).Contains("No risk rows")
	})

	t.Run("saving requires staff", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/ai-extract/save", "dave", map[string]string{"text": kriReport})
		gt.Number(t, w.Code).Equal(http.StatusForbidden)
	})

	t.Run("save as draft then approve all", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/ai-extract/save", "bob", map[string]string{"text": kriReport})
		gt.Number(t, w.Code).Equal(http.StatusOK)

		resp := decode[extractResult](t, w)
		gt.Number(t, resp.Saved).Equal(1)
		gt.Number(t, resp.SkippedZeroOccurrence).Equal(1)
		gt.Value(t, resp.Candidates[0].Risk.Description).Equal("[DRAFT] Server failure")

		w = do(t, srv, http.MethodPost, "/drafts/approve-all", "bob", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Number(t, decode[map[string]int](t, w)["count"]).Equal(1)

		w = do(t, srv, http.MethodGet, "/drafts", "dave", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Array(t, decode[[]map[string]any](t, w)).Length(0)
	})

	t.Run("save and approve", func(t *testing.T) {
		w := do(t, srv, http.MethodPost, "/ai-extract/save-approve", "alice", map[string]string{"text": kriReport})
		gt.Number(t, w.Code).Equal(http.StatusOK)

		resp := decode[extractResult](t, w)
		gt.Number(t, resp.Saved).Equal(1)
		gt.Value(t, resp.Candidates[0].Risk.Description).Equal("Server failure")
		gt.Value(t, resp.Candidates[0].Risk.ReferenceID).Equal("RISK-IT-001-1")
	})
}

func TestDraftEdit(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/ai-extract/save", "bob", map[string]string{"text": kriReport})
	gt.Number(t, w.Code).Equal(http.StatusOK)
	id := decode[extractResult](t, w).Candidates[0].Risk.ID
	path := "/draft/" + itoa(id) + "/edit"

	gt.Number(t, do(t, srv, http.MethodGet, path, "dave", nil).Code).Equal(http.StatusForbidden)

	w = do(t, srv, http.MethodGet, path, "bob", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)

	input := map[string]string{
		"description":          "Core banking outage",
		"risk_owner":           "Head of IT",
		"inherent_probability": "High",
		"inherent_impact":      "High",
		"residual_probability": "Medium",
		"residual_impact":      "Medium",
	}
	w = do(t, srv, http.MethodPost, path, "bob", input)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	got := decode[map[string]any](t, w)
	gt.Value(t, got["description"]).Equal("[DRAFT] Core banking outage")
	gt.Value(t, got["inherent_rating"]).Equal("Critical")
	gt.Value(t, got["residual_rating"]).Equal("Moderate")

	input["inherent_impact"] = "Huge"
	w = do(t, srv, http.MethodPost, path, "bob", input)
	gt.Number(t, w.Code).Equal(http.StatusBadRequest)

	gt.Number(t, do(t, srv, http.MethodGet, "/draft/999/edit", "bob", nil).Code).Equal(http.StatusNotFound)
	gt.Number(t, do(t, srv, http.MethodGet, "/draft/abc/edit", "bob", nil).Code).Equal(http.StatusBadRequest)
}

func TestRiskCRUD(t *testing.T) {
	srv := newTestServer(t)

	input := map[string]string{
		"area_name":            "Treasury",
		"description":          "Liquidity shortfall",
		"risk_owner":           "Treasurer",
		"inherent_probability": "Medium",
		"inherent_impact":      "Very High",
		"residual_probability": "Low",
		"residual_impact":      "High",
	}

	gt.Number(t, do(t, srv, http.MethodPost, "/risks", "dave", input).Code).Equal(http.StatusForbidden)

	w := do(t, srv, http.MethodPost, "/risks", "bob", input)
	gt.Number(t, w.Code).Equal(http.StatusCreated)
	created := decode[map[string]any](t, w)
	gt.Value(t, created["reference_id"]).Equal("RISK-TREA-001")
	gt.Value(t, created["inherent_rating"]).Equal("Critical")
	gt.Value(t, created["control_description"]).Equal("Standard Controls")

	id := int64(created["id"].(float64))
	w = do(t, srv, http.MethodGet, "/risks/"+itoa(id), "dave", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)

	input["residual_probability"] = "Very Low"
	input["residual_impact"] = "Very Low"
	w = do(t, srv, http.MethodPut, "/risks/"+itoa(id), "bob", input)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[map[string]any](t, w)["residual_rating"]).Equal("Sustainable")

	gt.Number(t, do(t, srv, http.MethodGet, "/risks/42", "dave", nil).Code).Equal(http.StatusNotFound)

	w = do(t, srv, http.MethodGet, "/", "dave", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	dashboard := decode[map[string]any](t, w)
	gt.Value(t, dashboard["total"]).Equal(float64(1))
}

func TestClearAndExport(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/ai-extract/save-approve", "bob", map[string]string{"text": kriReport})
	gt.Number(t, w.Code).Equal(http.StatusOK)

	w = do(t, srv, http.MethodGet, "/export-csv", "dave", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, w.Header().Get("Content-Type")).Equal("text/csv")
	gt.String(t, w.Body.String()).Contains("ID,Description,Inherent Rating,Residual Rating")
	gt.String(t, w.Body.String()).Contains("RISK-IT-001,Server failure,Severe,Moderate")

	gt.Number(t, do(t, srv, http.MethodPost, "/export-csv-clear", "bob", nil).Code).Equal(http.StatusForbidden)
	gt.Number(t, do(t, srv, http.MethodPost, "/clear-risks", "bob", nil).Code).Equal(http.StatusForbidden)

	w = do(t, srv, http.MethodPost, "/export-csv-clear", "alice", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains("RISK-IT-001")

	w = do(t, srv, http.MethodPost, "/clear-risks", "alice", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.Number(t, decode[map[string]int](t, w)["count"]).Equal(0)
}

func TestOfficialReport(t *testing.T) {
	srv := newTestServer(t)

	gt.Number(t, do(t, srv, http.MethodGet, "/official-report", "dave", nil).Code).Equal(http.StatusForbidden)
	gt.Number(t, do(t, srv, http.MethodGet, "/official-report", "bob", nil).Code).Equal(http.StatusForbidden)

	w := do(t, srv, http.MethodGet, "/official-report", "carol", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	rep := decode[map[string]any](t, w)
	gt.Value(t, rep["is_admin"]).Equal(false)
	gt.Value(t, rep["generated_by"]).Equal("Carol")

	gt.Number(t, do(t, srv, http.MethodPost, "/official-report", "carol",
		map[string]string{"executive_summary": "changed"}).Code).Equal(http.StatusForbidden)

	w = do(t, srv, http.MethodPost, "/official-report", "alice", url.Values{"executive_summary": {"Board edition"}})
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[map[string]any](t, w)["executive_summary"]).Equal("Board edition")

	w = do(t, srv, http.MethodGet, "/official-report.pdf", "alice", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, w.Header().Get("Content-Type")).Equal("application/pdf")
	gt.Bool(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF"))).True()
}
