// Command ragus 对知识库 RAG 服务跑一组样例问题，生成评测记录、指标与报告。
//
//	ragus run --config config/config.yaml
//	ragus serve --config config/config.yaml
package main

import (
	"log/slog"
	"os"
)

func main() {
	slog.SetDefault(newLogger("info", "text"))

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
