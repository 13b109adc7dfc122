package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError 配置错误，总是致命的，在处理任何文档之前中止运行
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("配置错误: %s: %v", e.Reason, e.Err)
	}
	return "配置错误: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError 创建配置错误
func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// WrapConfigurationError 将底层错误包装为配置错误
func WrapConfigurationError(err error, format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// UnsupportedFormatError 文档格式无法识别或已损坏
type UnsupportedFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("不支持的文件格式 %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("不支持的文件格式 %s: %s", e.Path, e.Reason)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return e.Err
}

// IsConfigurationError 判断错误链中是否包含配置错误
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsUnsupportedFormat 判断错误链中是否包含格式错误
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}
