package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"ragus-eval/internal/config"
	"ragus-eval/internal/model"
	"ragus-eval/internal/observability"
	"ragus-eval/internal/report"

	"github.com/google/uuid"
)

// EvaluationRequest 未填写的字段使用配置中的默认值
type EvaluationRequest struct {
	Endpoint      string            `json:"endpoint"`
	GroupID       int               `json:"group_id"`
	SessionID     int               `json:"session_id"`
	MetricsPolicy string            `json:"metrics_policy"`
	Queries       []model.QueryPair `json:"queries"`
	Concurrency   int               `json:"concurrency"`

	OnProgress func(done, total int) `json:"-"`
}

// EvaluationService 一次完整评测：查询 -> 生成记录 -> 计算指标 -> 写报告 -> 保存运行
type EvaluationService struct {
	cfg     *config.Config
	client  QueryClient
	writer  *report.Writer
	runs    *RunStore
	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewEvaluationService(cfg *config.Config, client QueryClient, runs *RunStore, metrics *observability.Metrics, logger *slog.Logger) *EvaluationService {
	if logger == nil {
		logger = slog.Default()
	}
	if runs == nil {
		runs = NewRunStore()
	}
	return &EvaluationService{
		cfg:     cfg,
		client:  client,
		writer:  report.NewWriter(),
		runs:    runs,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *EvaluationService) Evaluate(ctx context.Context, req EvaluationRequest) (*model.EvaluationRun, error) {
	req = s.withDefaults(req)
	if err := ValidateDataset(req.Queries); err != nil {
		return nil, fmt.Errorf("评测数据无效: %w", err)
	}

	policy, err := NewMetricsPolicy(req.MetricsPolicy, s.cfg.Evaluation.ScorerURL)
	if err != nil {
		return nil, err
	}

	run := &model.EvaluationRun{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now(),
		Endpoint:      req.Endpoint,
		GroupID:       req.GroupID,
		SessionID:     req.SessionID,
		MetricsPolicy: policy.Name(),
	}
	logger := s.logger.With("run_id", run.ID)
	logger.Info("evaluation started", "queries", len(req.Queries), "endpoint", req.Endpoint, "policy", policy.Name())

	runner := NewEvaluationRunner(s.client, policy, logger)
	records, summary, err := runner.Run(ctx, req.Queries, RunOptions{
		GroupID:     req.GroupID,
		SessionID:   req.SessionID,
		Endpoint:    req.Endpoint,
		Concurrency: req.Concurrency,
		OnProgress:  req.OnProgress,
	})
	if err != nil {
		run.Errors = append(run.Errors, err.Error())
	}
	run.Records = records
	run.Metrics = summary

	dir := filepath.Join(s.cfg.Evaluation.OutputDir, run.ID)
	arts, err := s.writer.Write(dir, report.Data{
		Title:       report.DefaultTitle,
		RunID:       run.ID,
		Endpoint:    run.Endpoint,
		GeneratedAt: run.CreatedAt,
		Records:     records,
		Metrics:     summary,
	})
	run.Artifacts = arts
	if err != nil {
		logger.Error("write reports failed", "error", err)
		run.Errors = append(run.Errors, err.Error())
	}

	s.runs.Put(run)
	if s.metrics != nil {
		s.metrics.EvaluationRuns.WithLabelValues(run.MetricsPolicy).Inc()
	}
	logger.Info("evaluation finished", "total", summary.Total, "errors", summary.ErrorCount, "dir", dir)
	return run, nil
}

func (s *EvaluationService) Runs() *RunStore {
	return s.runs
}

func (s *EvaluationService) withDefaults(req EvaluationRequest) EvaluationRequest {
	if strings.TrimSpace(req.Endpoint) == "" {
		req.Endpoint = s.cfg.RAG.Endpoint
	}
	if req.GroupID <= 0 {
		req.GroupID = s.cfg.RAG.GroupID
	}
	if req.SessionID <= 0 {
		req.SessionID = s.cfg.RAG.SessionID
	}
	if strings.TrimSpace(req.MetricsPolicy) == "" {
		req.MetricsPolicy = s.cfg.Evaluation.MetricsPolicy
	}
	if req.Concurrency <= 0 {
		req.Concurrency = s.cfg.Evaluation.Concurrency
	}
	if len(req.Queries) == 0 {
		req.Queries = DefaultDataset()
	}
	return req
}
