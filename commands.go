package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"ragus-eval/internal/config"
	"ragus-eval/internal/model"
	"ragus-eval/internal/router"
	"ragus-eval/internal/service"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ragus",
		Short:        "RAG evaluation harness for the knowledge-base query endpoint",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "配置文件路径（默认 config/config.yaml，不存在时使用内置默认值）")

	rootCmd.AddCommand(
		buildRunCmd(),
		buildServeCmd(),
	)
	return rootCmd
}

type runFlags struct {
	endpoint    string
	groupID     int
	sessionID   int
	metrics     string
	dataset     string
	output      string
	concurrency int
}

func buildRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the evaluation dataset against the RAG endpoint and write reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg, f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runEvaluation(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "知识库查询地址（覆盖配置与 RAG_ENDPOINT）")
	cmd.Flags().IntVar(&f.groupID, "group-id", 0, "groupid 参数")
	cmd.Flags().IntVar(&f.sessionID, "session-id", 0, "session_id 参数")
	cmd.Flags().StringVar(&f.metrics, "metrics", "", "指标策略: placeholder|heuristic|remote")
	cmd.Flags().StringVar(&f.dataset, "dataset", "", "YAML 数据集路径，留空使用内置样例")
	cmd.Flags().StringVar(&f.output, "output", "", "报告输出目录")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "并发查询数，1 为顺序执行")
	return cmd
}

func buildServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "监听端口")
	return cmd
}

// loadConfig 显式指定的配置文件必须存在；默认路径不存在时退回内置默认值
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	var cfg *config.Config
	if _, err := os.Stat(path); err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	slog.SetDefault(newLogger(cfg.Log.Level, cfg.Log.Format))
	return cfg, nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config, f runFlags) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.RAG.Endpoint = strings.TrimSpace(f.endpoint)
	}
	if flags.Changed("group-id") {
		cfg.RAG.GroupID = f.groupID
	}
	if flags.Changed("session-id") {
		cfg.RAG.SessionID = f.sessionID
	}
	if flags.Changed("metrics") {
		cfg.Evaluation.MetricsPolicy = f.metrics
	}
	if flags.Changed("dataset") {
		cfg.Evaluation.DatasetPath = f.dataset
	}
	if flags.Changed("output") {
		cfg.Evaluation.OutputDir = f.output
	}
	if flags.Changed("concurrency") {
		cfg.Evaluation.Concurrency = f.concurrency
	}
	cfg.ApplyDefaults()
}

func runEvaluation(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pairs, err := service.LoadDataset(cfg.Evaluation.DatasetPath)
	if err != nil {
		return err
	}

	svcCtx := service.NewServiceContext(cfg, nil, slog.Default())
	defer svcCtx.Close()

	run, err := svcCtx.Evaluations.Evaluate(ctx, service.EvaluationRequest{
		Queries: pairs,
		OnProgress: func(done, total int) {
			slog.Info("evaluating", "progress", fmt.Sprintf("%d/%d", done, total))
		},
	})
	if err != nil {
		return err
	}

	printRun(out, run)
	return nil
}

func printRun(out io.Writer, run *model.EvaluationRun) {
	fmt.Fprintf(out, "\nEvaluation %s (%s)\n", run.ID, run.Endpoint)
	fmt.Fprintf(out, "Metrics policy: %s\n", run.Metrics.Policy)
	names := make([]string, 0, len(run.Metrics.Scores))
	for name := range run.Metrics.Scores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-20s %.1f%%\n", name, run.Metrics.Scores[name]*100)
	}
	if run.Metrics.Policy == service.PolicyHeuristic {
		fmt.Fprintf(out, "  %d/%d successful, %d failed\n", run.Metrics.SuccessCount, run.Metrics.Total, run.Metrics.ErrorCount)
	}
	if !run.Metrics.Measured {
		fmt.Fprintln(out, "  (placeholder values, not measured)")
	}

	fmt.Fprintln(out, "\nReports:")
	for _, p := range []string{run.Artifacts.HTML, run.Artifacts.CSV, run.Artifacts.PDF, run.Artifacts.JSON, run.Artifacts.Markdown} {
		if p != "" {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	for _, e := range run.Errors {
		fmt.Fprintf(out, "warning: %s\n", e)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx := service.NewServiceContext(cfg, nil, slog.Default())
	defer svcCtx.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router.SetupRouter(svcCtx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("服务启动", "addr", srv.Addr, "endpoint", cfg.RAG.Endpoint)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("启动服务失败: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("服务关闭中")
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
