package service

import (
	"context"
	"fmt"
	"strings"

	"ragus-eval/internal/model"
)

const (
	PolicyPlaceholder = "placeholder"
	PolicyHeuristic   = "heuristic"
	PolicyRemote      = "remote"
)

// MetricsPolicy 评测指标计算策略，由配置显式选择
type MetricsPolicy interface {
	Name() string
	Compute(ctx context.Context, records []model.EvaluationRecord) (model.MetricsSummary, error)
}

func NewMetricsPolicy(name string, scorerURL string) (MetricsPolicy, error) {
	switch strings.TrimSpace(name) {
	case PolicyPlaceholder:
		return PlaceholderPolicy{}, nil
	case PolicyHeuristic, "":
		return HeuristicPolicy{}, nil
	case PolicyRemote:
		if strings.TrimSpace(scorerURL) == "" {
			return nil, fmt.Errorf("remote 策略缺少 scorer_url")
		}
		return NewRemoteScorer(scorerURL), nil
	default:
		return nil, fmt.Errorf("未知的指标策略: %q", name)
	}
}

// PlaceholderPolicy 没有接入真实打分模型时的固定值，并非实测
type PlaceholderPolicy struct{}

func (PlaceholderPolicy) Name() string { return PolicyPlaceholder }

func (PlaceholderPolicy) Compute(_ context.Context, records []model.EvaluationRecord) (model.MetricsSummary, error) {
	return model.MetricsSummary{
		Policy:   PolicyPlaceholder,
		Measured: false,
		Total:    len(records),
		Scores: map[string]float64{
			"Context Recall":      0.85,
			"Faithfulness":        0.92,
			"Factual Correctness": 0.88,
		},
	}, nil
}

// HeuristicPolicy 按回答里是否包含错误标记统计成功率
type HeuristicPolicy struct{}

func (HeuristicPolicy) Name() string { return PolicyHeuristic }

func (HeuristicPolicy) Compute(_ context.Context, records []model.EvaluationRecord) (model.MetricsSummary, error) {
	s := model.MetricsSummary{
		Policy:   PolicyHeuristic,
		Measured: true,
		Total:    len(records),
	}
	for _, r := range records {
		if model.IsErrorResponse(r.Response) {
			s.ErrorCount++
		} else {
			s.SuccessCount++
		}
	}
	// 空数据集成功率记为 0，避免除零
	rate := 0.0
	if s.Total > 0 {
		rate = float64(s.SuccessCount) / float64(s.Total)
	}
	s.Scores = map[string]float64{"Success Rate": rate}
	return s, nil
}
