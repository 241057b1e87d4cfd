package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"ragus-eval/internal/config"
	"ragus-eval/internal/model"
	"ragus-eval/internal/observability"

	"github.com/cenkalti/backoff/v5"
)

// QueryClient 评测只依赖这个接口，方便替换成 mock
type QueryClient interface {
	Query(ctx context.Context, req model.QueryRequest) model.QueryOutcome
}

type RAGClient struct {
	Endpoint  string
	GroupID   int
	SessionID int
	// 总尝试次数（含首次）
	MaxAttempts    int
	BackoffInitial time.Duration
	RetryStatuses  map[int]bool
	Client         *http.Client

	metrics *observability.Metrics
	logger  *slog.Logger
}

type RAGClientOption func(*RAGClient)

func WithHTTPClient(hc *http.Client) RAGClientOption {
	return func(c *RAGClient) {
		if hc != nil {
			c.Client = hc
		}
	}
}

func WithMetrics(m *observability.Metrics) RAGClientOption {
	return func(c *RAGClient) { c.metrics = m }
}

func WithLogger(l *slog.Logger) RAGClientOption {
	return func(c *RAGClient) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewRAGClient(cfg config.RAGConfig, opts ...RAGClientOption) *RAGClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultEndpoint
	}
	if cfg.GroupID <= 0 {
		cfg.GroupID = config.DefaultGroupID
	}
	if cfg.SessionID <= 0 {
		cfg.SessionID = config.DefaultSessionID
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = time.Second
	}
	statuses := cfg.RetryStatuses
	if len(statuses) == 0 {
		statuses = []int{500, 502, 503, 504}
	}
	retry := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		retry[s] = true
	}

	c := &RAGClient{
		Endpoint:       strings.TrimSpace(cfg.Endpoint),
		GroupID:        cfg.GroupID,
		SessionID:      cfg.SessionID,
		MaxAttempts:    cfg.MaxAttempts,
		BackoffInitial: cfg.BackoffInitial,
		RetryStatuses:  retry,
		Client:         newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newHTTPClient 连接超时走 Dialer，读超时走 ResponseHeaderTimeout；整体再兜一个上限覆盖读 body
func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.ResponseHeaderTimeout = readTimeout
	return &http.Client{
		Transport: transport,
		Timeout:   connectTimeout + readTimeout,
	}
}

// Close 释放连接池中的空闲连接
func (c *RAGClient) Close() {
	if c.Client != nil {
		c.Client.CloseIdleConnections()
	}
}

// queryError 内部错误分类，只在 Query 内部流转
type queryError struct {
	kind model.ErrorKind
	msg  string
}

func (e *queryError) Error() string { return string(e.kind) + ": " + e.msg }

// Query 发起一次知识库查询；所有失败都转换成 Failure，不向调用方返回 error
func (c *RAGClient) Query(ctx context.Context, req model.QueryRequest) (outcome model.QueryOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = model.Failure(model.ErrTransport, fmt.Sprintf("unexpected fault: %v", r))
		}
		c.observe(outcome, time.Since(start))
	}()

	req = c.withDefaults(req)
	target, err := buildQueryURL(req)
	if err != nil {
		return model.Failure(model.ErrTransport, err.Error())
	}

	attempt := 0
	raw, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		return c.attempt(ctx, target, attempt)
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("rag query retry", "attempt", attempt, "wait", wait, "error", err)
		}),
	)
	if err != nil {
		qe := asQueryError(err)
		if qe.kind == model.ErrTimeout {
			return model.Failure(model.ErrTimeout, fmt.Sprintf("no response after %d attempts", attempt))
		}
		if qe.kind == model.ErrTransport && strings.HasPrefix(qe.msg, "HTTP ") && attempt > 1 {
			return model.Failure(qe.kind, fmt.Sprintf("%s (after %d attempts)", qe.msg, attempt))
		}
		return model.Failure(qe.kind, qe.msg)
	}
	return parseAnswer(raw)
}

func (c *RAGClient) withDefaults(req model.QueryRequest) model.QueryRequest {
	if req.GroupID <= 0 {
		req.GroupID = c.GroupID
	}
	if req.SessionID <= 0 {
		req.SessionID = c.SessionID
	}
	if strings.TrimSpace(req.Endpoint) == "" {
		req.Endpoint = c.Endpoint
	}
	return req
}

// newBackOff 1s -> 2s -> 4s，不加随机抖动
func (c *RAGClient) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.BackoffInitial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.BackoffInitial * 8
	return b
}

func (c *RAGClient) attempt(ctx context.Context, target string, attempt int) ([]byte, error) {
	if c.metrics != nil {
		c.metrics.QueryAttempts.Inc()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(&queryError{kind: model.ErrTransport, msg: fmt.Sprintf("创建请求失败: %v", err)})
	}
	httpReq.Header.Set("accept", "application/json")

	c.logger.Debug("rag query request", "attempt", attempt, "url", target)
	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, retryable(classifyTransportError(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retryable(classifyTransportError(err))
	}
	c.logger.Debug("rag query response", "attempt", attempt, "status", resp.StatusCode, "body", truncate(string(raw), 500))

	if c.RetryStatuses[resp.StatusCode] {
		return nil, &queryError{kind: model.ErrTransport, msg: httpStatusMessage(resp.StatusCode, raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, backoff.Permanent(&queryError{kind: model.ErrTransport, msg: httpStatusMessage(resp.StatusCode, raw)})
	}
	return raw, nil
}

func (c *RAGClient) observe(outcome model.QueryOutcome, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	label := "answer"
	if !outcome.IsAnswer() {
		label = string(outcome.Kind())
	}
	c.metrics.QueryOutcomes.WithLabelValues(label).Inc()
	c.metrics.QueryDuration.Observe(elapsed.Seconds())
}

// retryable 只有超时会重试；连接失败快速失败
func retryable(qe *queryError) error {
	if qe.kind == model.ErrTimeout {
		return qe
	}
	return backoff.Permanent(qe)
}

func classifyTransportError(err error) *queryError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &queryError{kind: model.ErrTimeout, msg: err.Error()}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.As(err, &dnsErr) ||
		(errors.As(err, &opErr) && opErr.Op == "dial") {
		return &queryError{kind: model.ErrConnectionUnreachable, msg: err.Error()}
	}
	return &queryError{kind: model.ErrTransport, msg: err.Error()}
}

func asQueryError(err error) *queryError {
	var qe *queryError
	if errors.As(err, &qe) {
		return qe
	}
	// backoff 在 ctx 结束时直接返回 ctx 的错误
	return classifyTransportError(err)
}

func buildQueryURL(req model.QueryRequest) (string, error) {
	u, err := url.Parse(req.Endpoint)
	if err != nil {
		return "", fmt.Errorf("无效的 endpoint %q: %w", req.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("无效的 endpoint %q: 仅支持 http/https", req.Endpoint)
	}
	q := u.Query()
	q.Set("groupid", fmt.Sprintf("%d", req.GroupID))
	q.Set("query", req.Prompt)
	q.Set("session_id", fmt.Sprintf("%d", req.SessionID))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseAnswer 依次判断：非 JSON -> MalformedResponse；非对象或缺 answer -> UnexpectedShape
func parseAnswer(raw []byte) model.QueryOutcome {
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return model.Failure(model.ErrMalformedResponse, string(raw))
	}

	obj, ok := data.(map[string]interface{})
	if !ok {
		return model.Failure(model.ErrUnexpectedShape, dumpJSON(data))
	}
	v, ok := obj["answer"]
	if !ok {
		return model.Failure(model.ErrUnexpectedShape, dumpJSON(obj))
	}
	if s, ok := v.(string); ok {
		return model.Answer(s)
	}
	return model.Answer(dumpJSON(v))
}

func dumpJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func httpStatusMessage(status int, body []byte) string {
	return fmt.Sprintf("HTTP %d %s: %s", status, http.StatusText(status), truncate(string(body), 500))
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
