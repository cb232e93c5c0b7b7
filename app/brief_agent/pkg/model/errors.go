package model

import "errors"

var (
	// ErrInvalidRequest 请求参数不合法
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDataUnavailable 数据源缺失、损坏或为空
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrBackendUnavailable 外部后端不可达、超时或限流
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendMalformedResponse 外部后端返回内容无法解析
	ErrBackendMalformedResponse = errors.New("backend malformed response")
	// ErrValidationFailed 修订后仍未通过校验
	ErrValidationFailed = errors.New("validation failed")
	// ErrWriteFailed 输出写入或校验失败
	ErrWriteFailed = errors.New("write failed")
)
