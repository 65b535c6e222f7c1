package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/betbot/controlpanel/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "api")

// 后端接口路径
const (
	PathStatus        = "/api/status"
	PathPerformance   = "/api/performance_metrics"
	PathPositions     = "/api/positions"
	PathTrades        = "/api/trades"
	PathAccount       = "/api/account"
	PathStart         = "/api/start"
	PathStop          = "/api/stop"
	PathClosePosition = "/api/close_position/{symbol}"
	PathHealth        = "/health"
)

// 错误正文只保留前面一段，避免把整页 HTML 打进日志
const maxErrorBody = 256

// Client 策略后端 REST 客户端。
// 所有调用都是单次尝试，不做自动重试。
type Client struct {
	client  *resty.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "betbot-controlpanel")
	return &Client{client: c, baseURL: baseURL}
}

// BaseURL 当前后端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do 发起一次请求；op 形如 "GET /api/status"，用作错误前缀
func (c *Client) do(ctx context.Context, method, endpoint string, pathParams map[string]string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	op := method + " " + endpoint
	for k, v := range pathParams {
		op = strings.ReplaceAll(op, "{"+k+"}", v)
	}
	reqID := uuid.NewString()
	r := c.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", reqID)
	if len(pathParams) > 0 {
		r.SetPathParams(pathParams)
	}
	if out != nil {
		// 后端偶尔不带 Content-Type，统一按 JSON 解
		r.SetResult(out).ForceContentType("application/json")
	}

	start := time.Now()
	resp, err := r.Execute(method, endpoint)
	if err != nil {
		// 拿到了 2xx 响应却出错，只可能是响应体解码失败
		if resp != nil && resp.RawResponse != nil && resp.IsSuccess() {
			return &ParseError{Op: op, Err: errors.Wrap(err, "decode response")}
		}
		log.WithFields(logrus.Fields{"op": op, "request_id": reqID}).Debugf("请求失败: %v", err)
		return &NetworkError{Op: op, Err: err}
	}
	log.WithFields(logrus.Fields{
		"op":         op,
		"request_id": reqID,
		"status":     resp.StatusCode(),
		"elapsed":    time.Since(start).Round(time.Millisecond),
	}).Debug("请求完成")

	if !resp.IsSuccess() {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &HTTPError{Op: op, StatusCode: resp.StatusCode(), Body: body}
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	var out domain.Status
	err := c.do(ctx, http.MethodGet, PathStatus, nil, &out)
	return out, err
}

func (c *Client) PerformanceMetrics(ctx context.Context) (domain.PerformanceMetrics, error) {
	var out domain.PerformanceMetrics
	err := c.do(ctx, http.MethodGet, PathPerformance, nil, &out)
	return out, err
}

type positionsEnvelope struct {
	Positions []domain.Position `json:"positions"`
}

// Positions 解包 {"positions": [...]}，字段缺失时返回空切片
func (c *Client) Positions(ctx context.Context) ([]domain.Position, error) {
	var env positionsEnvelope
	if err := c.do(ctx, http.MethodGet, PathPositions, nil, &env); err != nil {
		return nil, err
	}
	if env.Positions == nil {
		return []domain.Position{}, nil
	}
	return env.Positions, nil
}

type tradesEnvelope struct {
	Trades []domain.Trade `json:"trades"`
}

// Trades 解包 {"trades": [...]}，字段缺失时返回空切片
func (c *Client) Trades(ctx context.Context) ([]domain.Trade, error) {
	var env tradesEnvelope
	if err := c.do(ctx, http.MethodGet, PathTrades, nil, &env); err != nil {
		return nil, err
	}
	if env.Trades == nil {
		return []domain.Trade{}, nil
	}
	return env.Trades, nil
}

func (c *Client) Account(ctx context.Context) (domain.Account, error) {
	var out domain.Account
	err := c.do(ctx, http.MethodGet, PathAccount, nil, &out)
	return out, err
}

// StartStrategy POST /api/start，响应体忽略
func (c *Client) StartStrategy(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathStart, nil, nil)
}

// StopStrategy POST /api/stop，响应体忽略
func (c *Client) StopStrategy(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathStop, nil, nil)
}

// ClosePosition POST /api/close_position/{symbol}；symbol 由 resty 做路径转义
func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return errors.New("close position: empty symbol")
	}
	return c.do(ctx, http.MethodPost, PathClosePosition,
		map[string]string{"symbol": symbol}, nil)
}

// Health GET /health，仅用于启动时探活
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, PathHealth, nil, nil)
}
