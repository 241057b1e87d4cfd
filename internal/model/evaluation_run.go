package model

import "time"

// EvaluationRun 一次评测的元数据与结果，仅在内存中保留，落盘的只有报告文件
type EvaluationRun struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Endpoint      string `json:"endpoint"`
	GroupID       int    `json:"group_id"`
	SessionID     int    `json:"session_id"`
	MetricsPolicy string `json:"metrics_policy"`

	Records   []EvaluationRecord `json:"records"`
	Metrics   MetricsSummary     `json:"metrics"`
	Artifacts Artifacts          `json:"artifacts"`
	// 非致命错误（指标计算失败、报告写入失败等），单个问题失败不记在这里
	Errors []string `json:"errors,omitempty"`
}

type Artifacts struct {
	Dir      string `json:"dir"`
	HTML     string `json:"html,omitempty"`
	CSV      string `json:"csv,omitempty"`
	PDF      string `json:"pdf,omitempty"`
	JSON     string `json:"json,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}
