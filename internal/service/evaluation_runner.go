package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ragus-eval/internal/model"

	"golang.org/x/sync/errgroup"
)

type RunOptions struct {
	GroupID   int
	SessionID int
	Endpoint  string
	// <=1 时严格按顺序逐个查询
	Concurrency int
	// 每完成一个问题回调一次（CLI 进度输出）
	OnProgress func(done, total int)
}

type EvaluationRunner struct {
	client QueryClient
	policy MetricsPolicy
	logger *slog.Logger
}

func NewEvaluationRunner(client QueryClient, policy MetricsPolicy, logger *slog.Logger) *EvaluationRunner {
	if policy == nil {
		policy = HeuristicPolicy{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationRunner{
		client: client,
		policy: policy,
		logger: logger,
	}
}

// Run 每个问题调用一次 client，按输入顺序生成记录，再按配置的策略计算指标。
// 单个问题失败不会中断；指标策略失败时退回 heuristic，并通过 error 告知调用方。
func (r *EvaluationRunner) Run(ctx context.Context, pairs []model.QueryPair, opts RunOptions) ([]model.EvaluationRecord, model.MetricsSummary, error) {
	records := r.BuildRecords(ctx, pairs, opts)

	metrics, err := r.policy.Compute(ctx, records)
	if err != nil {
		r.logger.Warn("metrics policy failed, falling back to heuristic", "policy", r.policy.Name(), "error", err)
		fallback, _ := HeuristicPolicy{}.Compute(ctx, records)
		return records, fallback, fmt.Errorf("指标策略 %s 计算失败: %w", r.policy.Name(), err)
	}
	return records, metrics, nil
}

func (r *EvaluationRunner) BuildRecords(ctx context.Context, pairs []model.QueryPair, opts RunOptions) []model.EvaluationRecord {
	records := make([]model.EvaluationRecord, len(pairs))
	progress := newProgress(len(pairs), opts.OnProgress)

	if opts.Concurrency <= 1 {
		for i, p := range pairs {
			records[i] = r.evaluateOne(ctx, i, p, opts)
			progress.done()
		}
		return records
	}

	// 并发时每个问题写入固定下标，保证输出顺序与输入一致
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, p := range pairs {
		g.Go(func() error {
			records[i] = r.evaluateOne(ctx, i, p, opts)
			progress.done()
			return nil
		})
	}
	_ = g.Wait()
	return records
}

func (r *EvaluationRunner) evaluateOne(ctx context.Context, idx int, p model.QueryPair, opts RunOptions) model.EvaluationRecord {
	outcome := r.client.Query(ctx, model.QueryRequest{
		Prompt:    p.Query,
		GroupID:   opts.GroupID,
		SessionID: opts.SessionID,
		Endpoint:  opts.Endpoint,
	})
	if !outcome.IsAnswer() {
		r.logger.Info("query failed", "index", idx, "kind", outcome.Kind(), "message", truncate(outcome.Message(), 200))
	}
	return NewEvaluationRecord(p, outcome)
}

func NewEvaluationRecord(p model.QueryPair, outcome model.QueryOutcome) model.EvaluationRecord {
	response := outcome.Display()
	return model.EvaluationRecord{
		UserInput:         p.Query,
		RetrievedContexts: []string{response},
		Response:          response,
		Reference:         p.Reference,
	}
}

type progress struct {
	mu    sync.Mutex
	n     int
	total int
	fn    func(done, total int)
}

func newProgress(total int, fn func(done, total int)) *progress {
	return &progress{total: total, fn: fn}
}

func (p *progress) done() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	p.fn(p.n, p.total)
}
