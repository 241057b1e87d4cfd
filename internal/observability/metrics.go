package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 知识库查询与评测运行的 Prometheus 指标。
// 每个实例使用独立 registry，测试里可以重复创建。
type Metrics struct {
	registry *prometheus.Registry

	// 每次 HTTP 尝试（含重试）计数
	QueryAttempts prometheus.Counter
	// 最终结果，label: outcome (answer|timeout|connection_unreachable|...)
	QueryOutcomes *prometheus.CounterVec
	// 单次 Query 调用总耗时（含退避等待）
	QueryDuration prometheus.Histogram
	// 完成的评测运行，label: policy
	EvaluationRuns *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueryAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ragus_query_attempts_total",
			Help: "Total number of HTTP attempts sent to the knowledge-base endpoint",
		}),
		QueryOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ragus_query_outcomes_total",
			Help: "Classified outcomes of knowledge-base queries",
		}, []string{"outcome"}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ragus_query_duration_seconds",
			Help:    "Duration of a knowledge-base query including retries and backoff",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 45},
		}),
		EvaluationRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ragus_evaluation_runs_total",
			Help: "Completed evaluation runs by metrics policy",
		}, []string{"policy"}),
	}
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
