package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"ragus-eval/internal/model"
)

// RemoteScorer 把评测记录交给外部打分服务（如基于 ragas 的服务）。
// 请求: {"records":[...]}，响应: {"scores":{"Faithfulness":0.9}}
type RemoteScorer struct {
	baseURL string
	http    *http.Client
}

func NewRemoteScorer(baseURL string) *RemoteScorer {
	return &RemoteScorer{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *RemoteScorer) Name() string { return PolicyRemote }

type scoreRequest struct {
	Records []model.EvaluationRecord `json:"records"`
}

type scoreResponse struct {
	Scores map[string]float64 `json:"scores"`
	Detail string             `json:"detail"`
}

func (s *RemoteScorer) Compute(ctx context.Context, records []model.EvaluationRecord) (model.MetricsSummary, error) {
	raw, err := s.post(ctx, scoreRequest{Records: records})
	if err != nil {
		return model.MetricsSummary{}, err
	}

	var resp scoreResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return model.MetricsSummary{}, fmt.Errorf("解析打分响应失败: %w", err)
	}
	if len(resp.Scores) == 0 {
		return model.MetricsSummary{}, fmt.Errorf("打分服务未返回 scores: %s", truncate(string(raw), 300))
	}

	names := make([]string, 0, len(resp.Scores))
	for name := range resp.Scores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := resp.Scores[name]; v < 0 || v > 1 {
			return model.MetricsSummary{}, fmt.Errorf("指标 %s 超出 [0,1]: %v", name, v)
		}
	}

	return model.MetricsSummary{
		Policy:   PolicyRemote,
		Measured: true,
		Total:    len(records),
		Scores:   resp.Scores,
	}, nil
}

func (s *RemoteScorer) post(ctx context.Context, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求打分服务失败: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("scorer http=%d body=%s", resp.StatusCode, truncate(string(raw), 300))
	}
	// FastAPI 类服务出错时可能返回 200 + {"detail": "..."}
	var maybe scoreResponse
	if err := json.Unmarshal(raw, &maybe); err == nil && strings.TrimSpace(maybe.Detail) != "" && len(maybe.Scores) == 0 {
		return nil, fmt.Errorf("scorer detail=%s", truncate(maybe.Detail, 300))
	}
	return raw, nil
}
