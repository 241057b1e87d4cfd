package handler

import (
	"net/http"
	"path/filepath"

	"ragus-eval/internal/model"
	"ragus-eval/internal/service"

	"github.com/gin-gonic/gin"
)

type EvaluationHandler struct {
	evaluations *service.EvaluationService
}

func NewEvaluationHandler(evaluations *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

// RunEvaluation 同步执行一次评测：逐个查询 -> 计算指标 -> 生成报告
func (h *EvaluationHandler) RunEvaluation(c *gin.Context) {
	if h.evaluations == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation service not initialized"})
		return
	}

	var req service.EvaluationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	for _, q := range req.Queries {
		if q.Query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query 不能为空"})
			return
		}
	}

	run, err := h.evaluations.Evaluate(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":       run,
		"artifacts": run.Artifacts,
	})
}

// ListEvaluations 运行摘要，不带逐条记录
func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	runs := h.evaluations.Runs().List()
	items := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		items = append(items, gin.H{
			"id":             run.ID,
			"created_at":     run.CreatedAt,
			"endpoint":       run.Endpoint,
			"metrics_policy": run.MetricsPolicy,
			"total":          len(run.Records),
			"metrics":        run.Metrics,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"evaluations": items,
		"total":       len(items),
	})
}

func (h *EvaluationHandler) GetEvaluation(c *gin.Context) {
	run, ok := h.evaluations.Runs().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "evaluation not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetReport 下载某次运行的报告文件，format: html|csv|pdf|json|md
func (h *EvaluationHandler) GetReport(c *gin.Context) {
	run, ok := h.evaluations.Runs().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "evaluation not found"})
		return
	}

	path, contentType := artifactFor(run.Artifacts, c.Param("format"))
	if contentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format: " + c.Param("format")})
		return
	}
	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not generated"})
		return
	}

	c.Header("Content-Type", contentType)
	if c.Param("format") == "html" {
		c.File(path)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func artifactFor(a model.Artifacts, format string) (string, string) {
	switch format {
	case "html":
		return a.HTML, "text/html; charset=utf-8"
	case "csv":
		return a.CSV, "text/csv; charset=utf-8"
	case "pdf":
		return a.PDF, "application/pdf"
	case "json":
		return a.JSON, "application/json"
	case "md":
		return a.Markdown, "text/markdown; charset=utf-8"
	default:
		return "", ""
	}
}
