// Package logger 构建结构化日志，诊断信息统一写到 stderr，stdout 只保留预览与报告输出。
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Level  string
	Format string // json 或 console
	Output io.Writer
}

// New 创建新的日志实例
func New(config Config) (*zap.Logger, error) {
	if config.Level == "" {
		config.Level = "warn"
	}
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", config.Level, err)
	}

	var encoder zapcore.Encoder
	switch config.Format {
	case "", "console":
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json":
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("无效的日志格式 %q (必须是 json 或 console)", config.Format)
	}

	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
