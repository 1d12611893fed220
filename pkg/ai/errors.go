package ai

import (
	"errors"
	"fmt"
)

// ErrorKind 是补全服务失败的分类，取值是封闭集合。
type ErrorKind int

const (
	// KindConfig 服务未配置（缺少或无效的凭据），致命，不重试。
	KindConfig ErrorKind = iota + 1
	// KindTransport 网络层失败，可重试。
	KindTransport
	// KindService 远端返回非成功状态，可重试。
	KindService
	// KindMalformedResponse 成功状态但响应缺少必需字段，致命，不重试。
	KindMalformedResponse
)

// String 实现 fmt.Stringer。
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindService:
		return "service"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// 与 ErrorKind 一一对应的哨兵错误，配合 errors.Is 使用。
var (
	ErrConfig            = errors.New("completion service not configured")
	ErrTransport         = errors.New("completion service unreachable")
	ErrService           = errors.New("completion service rejected the request")
	ErrMalformedResponse = errors.New("completion service returned a malformed response")
)

// GatewayError 是补全网关返回的唯一错误类型。
type GatewayError struct {
	Kind       ErrorKind
	StatusCode int    // 仅 KindService 有意义
	Message    string // 远端或本地给出的说明
	Err        error  // 底层错误，可为空
}

// Error 实现 error 接口。
func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	default:
		return e.Kind.String() + " error"
	}
}

// Unwrap 暴露底层错误。
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, ErrService) 等按分类匹配。
func (e *GatewayError) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrService:
		return e.Kind == KindService
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	}
	return false
}

// Retryable 报告该失败是否属于可重试的瞬时错误。
func (e *GatewayError) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindService
}

// NewConfigError 构造配置错误。
func NewConfigError(msg string) *GatewayError {
	return &GatewayError{Kind: KindConfig, Message: msg}
}

// NewTransportError 构造网络错误。
func NewTransportError(err error) *GatewayError {
	return &GatewayError{Kind: KindTransport, Err: err}
}

// NewServiceError 构造远端拒绝错误。
func NewServiceError(status int, msg string, err error) *GatewayError {
	return &GatewayError{Kind: KindService, StatusCode: status, Message: msg, Err: err}
}

// NewMalformedResponse 构造响应格式错误。
func NewMalformedResponse(msg string, err error) *GatewayError {
	return &GatewayError{Kind: KindMalformedResponse, Message: msg, Err: err}
}

// KindOf 提取错误分类；非 GatewayError 返回 false。
func KindOf(err error) (ErrorKind, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Kind, true
	}
	return 0, false
}
