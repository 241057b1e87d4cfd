package model

import "strings"

// 失败回答的标记，与 QueryOutcome.Display 的前缀一致
var errorMarkers = []string{"Error:", "Unexpected API Response:"}

// QueryPair 样例问题 + 人工参考答案
type QueryPair struct {
	Query     string `json:"query" yaml:"query"`
	Reference string `json:"reference" yaml:"reference"`
}

// EvaluationRecord 每个问题一条，创建后不再修改
type EvaluationRecord struct {
	UserInput string `json:"user_input"`
	// 本系统固定只有一个元素（即 Response 本身）
	RetrievedContexts []string `json:"retrieved_contexts"`
	Response          string   `json:"response"`
	Reference         string   `json:"reference"`
}

// MetricsSummary 指标名 -> [0,1] 分数；heuristic 策略额外给出计数
type MetricsSummary struct {
	Policy string `json:"policy"`
	// placeholder 策略为 false：分数不是实测值
	Measured     bool               `json:"measured"`
	Total        int                `json:"total"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Scores       map[string]float64 `json:"scores"`
}

// IsErrorResponse 报告层按子串识别失败回答
func IsErrorResponse(response string) bool {
	for _, m := range errorMarkers {
		if strings.Contains(response, m) {
			return true
		}
	}
	return false
}
