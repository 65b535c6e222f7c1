package api

import (
	"fmt"

	"github.com/pkg/errors"
)

// NetworkError 传输层失败（连接失败、超时、ctx 取消）
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError 非 2xx 响应
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
}

// ParseError 响应体不是合法 JSON 或结构不符
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusCode 取出 HTTPError 的状态码，其他错误返回 0
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// Kind 错误分类，用于日志和指标标签
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		ne *NetworkError
		he *HTTPError
		pe *ParseError
	)
	switch {
	case errors.As(err, &he):
		return "http"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &ne):
		return "network"
	default:
		return "other"
	}
}
