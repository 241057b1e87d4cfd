package service

import (
	"log/slog"

	"ragus-eval/internal/config"
	"ragus-eval/internal/observability"
)

type ServiceContext struct {
	Config      *config.Config
	Client      *RAGClient
	Evaluations *EvaluationService
	Metrics     *observability.Metrics
}

func NewServiceContext(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *ServiceContext {
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := NewRAGClient(cfg.RAG, WithMetrics(metrics), WithLogger(logger.With("component", "rag_client")))

	return &ServiceContext{
		Config:      cfg,
		Client:      client,
		Evaluations: NewEvaluationService(cfg, client, NewRunStore(), metrics, logger),
		Metrics:     metrics,
	}
}

func (s *ServiceContext) Close() {
	s.Client.Close()
}
