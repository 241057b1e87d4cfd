package report

import (
	"encoding/json"
	"fmt"
	"os"
)

func WriteJSON(path string, d Data) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadJSON 读取已生成的 results.json
func LoadJSON(path string) (Data, error) {
	var d Data
	b, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("读取结果文件失败: %w", err)
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("解析结果文件失败: %w", err)
	}
	return d, nil
}
