package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"

	"ragus-eval/internal/model"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": formatPercent,
	"isError": model.IsErrorResponse,
}).Parse(reportTemplate))

type htmlData struct {
	Data
	Metrics     []metricItem
	Measured    bool
	SummaryHTML template.HTML
}

// RenderHTML 记录内容由 html/template 转义；摘要 markdown 渲染后再经 bluemonday 过滤
func RenderHTML(d Data, summaryMarkdown string) ([]byte, error) {
	rendered := blackfriday.Run([]byte(summaryMarkdown))
	safe := bluemonday.UGCPolicy().SanitizeBytes(rendered)

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, htmlData{
		Data:        d,
		Metrics:     sortedMetrics(d.Metrics),
		Measured:    d.Metrics.Measured,
		SummaryHTML: template.HTML(safe),
	})
	if err != nil {
		return nil, fmt.Errorf("渲染 HTML 模板失败: %w", err)
	}
	return buf.Bytes(), nil
}

func WriteHTML(path string, d Data, summaryMarkdown string) error {
	b, err := RenderHTML(d, summaryMarkdown)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
