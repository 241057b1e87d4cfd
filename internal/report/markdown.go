package report

import (
	"fmt"
	"strings"
	"time"

	"ragus-eval/internal/model"
)

// RenderSummaryMarkdown 评测摘要（指标 + 失败问题），同时嵌入 HTML 报告
func RenderSummaryMarkdown(d Data) string {
	var b strings.Builder
	b.WriteString("# RAG Evaluation Summary\n\n")
	b.WriteString(fmt.Sprintf("- run_id: %s\n", d.RunID))
	b.WriteString(fmt.Sprintf("- endpoint: %s\n", d.Endpoint))
	b.WriteString(fmt.Sprintf("- metrics_policy: %s\n", d.Metrics.Policy))
	b.WriteString(fmt.Sprintf("- queries: %d\n", len(d.Records)))
	b.WriteString(fmt.Sprintf("- generated_at: %s\n\n", d.GeneratedAt.Format(time.RFC3339)))

	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Score |\n")
	b.WriteString("| --- | ---: |\n")
	for _, m := range sortedMetrics(d.Metrics) {
		b.WriteString(fmt.Sprintf("| %s | %s |\n", escapeCell(m.Name), formatPercent(m.Value)))
	}
	b.WriteString("\n")

	if d.Metrics.Policy == "heuristic" {
		b.WriteString(fmt.Sprintf("Successful responses: %d, error responses: %d.\n\n", d.Metrics.SuccessCount, d.Metrics.ErrorCount))
	}
	if !d.Metrics.Measured {
		b.WriteString("> Scores are placeholders and were not measured.\n\n")
	}

	var failed []model.EvaluationRecord
	for _, r := range d.Records {
		if model.IsErrorResponse(r.Response) {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		b.WriteString("## Failed queries\n\n")
		max := len(failed)
		if max > 20 {
			max = 20
		}
		for i := 0; i < max; i++ {
			b.WriteString(fmt.Sprintf("- %s: %s\n", escapeInline(failed[i].UserInput), escapeInline(shorten(failed[i].Response, 200))))
		}
		if len(failed) > max {
			b.WriteString(fmt.Sprintf("- ...(%d more omitted)\n", len(failed)-max))
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(escapeInline(s), "|", "\\|")
}

func escapeInline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
