package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ragus-eval/internal/config"
	"ragus-eval/internal/model"
	"ragus-eval/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoClient struct{}

func (echoClient) Query(_ context.Context, req model.QueryRequest) model.QueryOutcome {
	if req.Prompt == "broken" {
		return model.Failure(model.ErrMalformedResponse, "<html>")
	}
	return model.Answer("answer to " + req.Prompt)
}

func setupEngine(t *testing.T) (*gin.Engine, *service.EvaluationService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Evaluation.OutputDir = t.TempDir()
	cfg.ApplyDefaults()
	svc := service.NewEvaluationService(cfg, echoClient{}, nil, nil, nil)

	h := NewEvaluationHandler(svc)
	sys := NewSystemHandler(cfg.RAG.Endpoint)
	r := gin.New()
	r.GET("/healthz", sys.Health)
	r.GET("/api/dataset", sys.GetDataset)
	r.POST("/api/evaluations/run", h.RunEvaluation)
	r.GET("/api/evaluations", h.ListEvaluations)
	r.GET("/api/evaluations/:id", h.GetEvaluation)
	r.GET("/api/evaluations/:id/report/:format", h.GetReport)
	return r, svc
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type runResponse struct {
	Run       model.EvaluationRun `json:"run"`
	Artifacts model.Artifacts     `json:"artifacts"`
}

func TestRunEvaluation(t *testing.T) {
	r, _ := setupEngine(t)

	w := doJSON(r, http.MethodPost, "/api/evaluations/run", gin.H{
		"queries": []gin.H{
			{"query": "Q1", "reference": "R1"},
			{"query": "broken", "reference": "R2"},
			{"query": "Q3", "reference": "R3"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Run.Records, 3)
	assert.Equal(t, "Q1", resp.Run.Records[0].UserInput)
	assert.Equal(t, "answer to Q1", resp.Run.Records[0].Response)
	assert.Equal(t, "Error: Invalid JSON Response: <html>", resp.Run.Records[1].Response)
	assert.Equal(t, "Q3", resp.Run.Records[2].UserInput)
	assert.InDelta(t, 2.0/3.0, resp.Run.Metrics.Scores["Success Rate"], 1e-9)
	assert.NotEmpty(t, resp.Artifacts.HTML)
}

func TestRunEvaluation_EmptyBodyUsesDefaultDataset(t *testing.T) {
	r, _ := setupEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluations/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Run.Records, len(service.DefaultDataset()))
}

func TestRunEvaluation_BadRequest(t *testing.T) {
	r, _ := setupEngine(t)

	w := doJSON(r, http.MethodPost, "/api/evaluations/run", gin.H{"queries": []gin.H{{"query": ""}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluations/run", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/evaluations/run", gin.H{"metrics_policy": "nope"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListAndGetEvaluation(t *testing.T) {
	r, svc := setupEngine(t)

	run, err := svc.Evaluate(context.Background(), service.EvaluationRequest{
		Queries: []model.QueryPair{{Query: "Q1", Reference: "R1"}},
	})
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/api/evaluations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Evaluations []map[string]any `json:"evaluations"`
		Total       int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, run.ID, list.Evaluations[0]["id"])

	w = doJSON(r, http.MethodGet, "/api/evaluations/"+run.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.EvaluationRun
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Len(t, got.Records, 1)

	w = doJSON(r, http.MethodGet, "/api/evaluations/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport(t *testing.T) {
	r, svc := setupEngine(t)
	run, err := svc.Evaluate(context.Background(), service.EvaluationRequest{
		Queries: []model.QueryPair{{Query: "Q1", Reference: "R1"}},
	})
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/api/evaluations/"+run.ID+"/report/csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "Query,Response,Reference\nQ1,answer to Q1,R1\n", w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/evaluations/"+run.ID+"/report/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = doJSON(r, http.MethodGet, "/api/evaluations/"+run.ID+"/report/html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "answer to Q1")

	w = doJSON(r, http.MethodGet, "/api/evaluations/"+run.ID+"/report/docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/evaluations/missing/report/csv", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSystemHandlers(t *testing.T) {
	r, _ := setupEngine(t)

	w := doJSON(r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = doJSON(r, http.MethodGet, "/api/dataset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ds struct {
		Queries []model.QueryPair `json:"queries"`
		Total   int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ds))
	assert.Equal(t, 5, ds.Total)
	assert.Equal(t, service.DefaultDataset(), ds.Queries)
}
