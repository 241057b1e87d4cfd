// Package report renders evaluation records and metrics into the HTML, CSV,
// PDF, JSON and Markdown artifacts of a run.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ragus-eval/internal/model"
)

const (
	HTMLFile     = "rag_evaluation_results.html"
	CSVFile      = "rag_evaluation_results.csv"
	PDFFile      = "rag_evaluation_results.pdf"
	JSONFile     = "results.json"
	MarkdownFile = "summary.md"

	DefaultTitle = "RAG Evaluation Results"
)

// Data 报告的输入：记录序列 + 指标，以及页眉用的运行信息
type Data struct {
	Title       string                   `json:"title"`
	RunID       string                   `json:"run_id"`
	Endpoint    string                   `json:"endpoint"`
	GeneratedAt time.Time                `json:"generated_at"`
	Records     []model.EvaluationRecord `json:"records"`
	Metrics     model.MetricsSummary     `json:"metrics"`
}

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write 在 dir 下生成全部报告文件。先删除同名旧文件；单个格式失败不影响其余格式。
func (w *Writer) Write(dir string, d Data) (model.Artifacts, error) {
	if d.Title == "" {
		d.Title = DefaultTitle
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}

	arts := model.Artifacts{Dir: dir}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return arts, fmt.Errorf("创建输出目录失败: %w", err)
	}
	for _, name := range []string{HTMLFile, CSVFile, PDFFile, JSONFile, MarkdownFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return arts, fmt.Errorf("清理旧报告失败: %w", err)
		}
	}

	summary := RenderSummaryMarkdown(d)

	var errs []error
	write := func(name string, target *string, fn func(path string) error) {
		path := filepath.Join(dir, name)
		if err := fn(path); err != nil {
			errs = append(errs, fmt.Errorf("生成 %s 失败: %w", name, err))
			return
		}
		*target = path
	}

	write(MarkdownFile, &arts.Markdown, func(path string) error {
		return os.WriteFile(path, []byte(summary), 0o644)
	})
	write(HTMLFile, &arts.HTML, func(path string) error { return WriteHTML(path, d, summary) })
	write(CSVFile, &arts.CSV, func(path string) error { return WriteCSV(path, d.Records) })
	write(PDFFile, &arts.PDF, func(path string) error { return WritePDF(path, d) })
	write(JSONFile, &arts.JSON, func(path string) error { return WriteJSON(path, d) })

	return arts, errors.Join(errs...)
}

type metricItem struct {
	Name  string
	Value float64
}

func sortedMetrics(m model.MetricsSummary) []metricItem {
	out := make([]metricItem, 0, len(m.Scores))
	for name, v := range m.Scores {
		out = append(out, metricItem{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
