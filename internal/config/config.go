package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint  = "http://10.229.222.15:8000/knowledgebase"
	DefaultGroupID   = 12
	DefaultSessionID = 111

	// EndpointEnv 覆盖配置文件中的 rag.endpoint
	EndpointEnv = "RAG_ENDPOINT"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	RAG        RAGConfig        `yaml:"rag"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type RAGConfig struct {
	Endpoint  string `yaml:"endpoint"`
	GroupID   int    `yaml:"group_id"`
	SessionID int    `yaml:"session_id"`
	// 连接超时与读超时分开配置（5s / 10s）
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	// 总尝试次数（含首次）
	MaxAttempts int `yaml:"max_attempts"`
	// 指数退避首个间隔：1s -> 2s -> 4s
	BackoffInitial time.Duration `yaml:"backoff_initial"`
	RetryStatuses  []int         `yaml:"retry_statuses"`
}

type EvaluationConfig struct {
	// placeholder / heuristic / remote
	MetricsPolicy string `yaml:"metrics_policy"`
	// remote 策略使用的外部打分服务
	ScorerURL   string `yaml:"scorer_url"`
	DatasetPath string `yaml:"dataset_path"`
	OutputDir   string `yaml:"output_dir"`
	// 1 表示严格顺序执行
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	config.ApplyEnv()
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default 没有配置文件时使用
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EndpointEnv)); v != "" {
		c.RAG.Endpoint = v
	}
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.RAG.Endpoint == "" {
		c.RAG.Endpoint = DefaultEndpoint
	}
	if c.RAG.GroupID <= 0 {
		c.RAG.GroupID = DefaultGroupID
	}
	if c.RAG.SessionID <= 0 {
		c.RAG.SessionID = DefaultSessionID
	}
	if c.RAG.ConnectTimeout <= 0 {
		c.RAG.ConnectTimeout = 5 * time.Second
	}
	if c.RAG.ReadTimeout <= 0 {
		c.RAG.ReadTimeout = 10 * time.Second
	}
	if c.RAG.MaxAttempts <= 0 {
		c.RAG.MaxAttempts = 3
	}
	if c.RAG.BackoffInitial <= 0 {
		c.RAG.BackoffInitial = time.Second
	}
	if len(c.RAG.RetryStatuses) == 0 {
		c.RAG.RetryStatuses = []int{500, 502, 503, 504}
	}
	if c.Evaluation.MetricsPolicy == "" {
		c.Evaluation.MetricsPolicy = "heuristic"
	}
	if c.Evaluation.OutputDir == "" {
		c.Evaluation.OutputDir = "outputs"
	}
	if c.Evaluation.Concurrency <= 0 {
		c.Evaluation.Concurrency = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	switch c.Evaluation.MetricsPolicy {
	case "placeholder", "heuristic":
	case "remote":
		if strings.TrimSpace(c.Evaluation.ScorerURL) == "" {
			return fmt.Errorf("metrics_policy=remote 需要配置 evaluation.scorer_url")
		}
	default:
		return fmt.Errorf("未知的 metrics_policy: %q", c.Evaluation.MetricsPolicy)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("未知的 log.format: %q", c.Log.Format)
	}
	return nil
}
