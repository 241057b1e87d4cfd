package service

import (
	"fmt"
	"os"
	"strings"

	"ragus-eval/internal/model"

	"gopkg.in/yaml.v3"
)

// DefaultDataset 内置样例问题与参考答案
func DefaultDataset() []model.QueryPair {
	return []model.QueryPair{
		{
			Query:     "Who introduced the theory of relativity?",
			Reference: "Albert Einstein proposed the theory of relativity, which transformed our understanding of time, space, and gravity.",
		},
		{
			Query:     "Who was the first computer programmer?",
			Reference: "Ada Lovelace is regarded as the first computer programmer for her work on Charles Babbage's early mechanical computer, the Analytical Engine.",
		},
		{
			Query:     "What did Isaac Newton contribute to science?",
			Reference: "Isaac Newton formulated the laws of motion and universal gravitation, laying the foundation for classical mechanics.",
		},
		{
			Query:     "Who won two Nobel Prizes for research on radioactivity?",
			Reference: "Marie Curie was a physicist and chemist who conducted pioneering research on radioactivity and won two Nobel Prizes.",
		},
		{
			Query:     "What is the theory of evolution by natural selection?",
			Reference: "Charles Darwin introduced the theory of evolution by natural selection in his book 'On the Origin of Species'.",
		},
	}
}

type datasetFile struct {
	Queries []model.QueryPair `yaml:"queries"`
}

// LoadDataset 读取 YAML 数据集；path 为空时返回内置样例
func LoadDataset(path string) ([]model.QueryPair, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDataset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据集失败: %w", err)
	}
	var f datasetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析数据集失败: %w", err)
	}
	if err := ValidateDataset(f.Queries); err != nil {
		return nil, fmt.Errorf("数据集 %s 无效: %w", path, err)
	}
	return f.Queries, nil
}

func ValidateDataset(pairs []model.QueryPair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("数据集为空")
	}
	for i, p := range pairs {
		if strings.TrimSpace(p.Query) == "" {
			return fmt.Errorf("第 %d 条 query 为空", i+1)
		}
	}
	return nil
}
