package report

import (
	"fmt"

	"github.com/go-pdf/fpdf"
)

// WritePDF 生成 A4 纵向 PDF：标题、指标表、逐条问答
func WritePDF(path string, d Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(d.Title, true)
	pdf.SetMargins(13, 20, 13)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(d.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	meta := fmt.Sprintf("Run %s | %s | %s", d.RunID, d.Endpoint, d.GeneratedAt.Format("2006-01-02 15:04:05"))
	pdf.CellFormat(0, 6, tr(meta), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Evaluation Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(19, 29, 65)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(100, 7, "Metric", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Score", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	for _, m := range sortedMetrics(d.Metrics) {
		pdf.CellFormat(100, 7, tr(m.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, formatPercent(m.Value), "1", 1, "R", false, 0, "")
	}
	if !d.Metrics.Measured {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, "Placeholder scores: these values are not measured.", "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Detailed Results", "", 1, "L", false, 0, "")
	for i, r := range d.Records {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, r.UserInput)), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr("Response: "+r.Response), "", "L", false)
		pdf.MultiCell(0, 5, tr("Reference: "+r.Reference), "", "L", false)
		pdf.Ln(3)
	}

	return pdf.OutputFileAndClose(path)
}
