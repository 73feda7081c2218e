package leetcode

import (
	"errors"
	"fmt"
	"strings"
)

// HTTPStatusError 表示接口返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	// Snippet 是响应体开头的一小段（便于判断是否被拦截）。
	Snippet string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	s := strings.TrimSpace(e.Snippet)
	if s == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, s)
}

// TransportError 表示请求没能拿到响应（连接失败、超时、ctx 取消等）。
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("请求 %s 失败：%v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError 表示响应体不是预期的 JSON。
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("解析 %s 的响应失败：%v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsHTTPStatus(err error) bool {
	var e *HTTPStatusError
	return errors.As(err, &e)
}

func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

func IsDecode(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}
