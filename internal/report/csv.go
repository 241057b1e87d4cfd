package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"ragus-eval/internal/model"
)

// EncodeCSV 扁平化为 Query,Response,Reference 三列
func EncodeCSV(w io.Writer, records []model.EvaluationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Query", "Response", "Reference"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.UserInput, r.Response, r.Reference}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCSV(path string, records []model.EvaluationRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建 CSV 文件失败: %w", err)
	}
	if err := EncodeCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
