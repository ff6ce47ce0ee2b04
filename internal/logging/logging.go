// Package logging 构造全局使用的 zap 日志记录器
//
// 默认关闭。配置文件的 log.level、命令行 --verbose 或环境变量 MINREG_DEBUG
// 任意一个打开时才输出。
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvDebug 打开调试日志的环境变量
const EnvDebug = "MINREG_DEBUG"

// Options 日志选项
type Options struct {
	Level   string // debug, info, warn, error；空表示关闭
	File    string // 日志文件；空表示标准错误
	Verbose bool   // 命令行 -v，等价于 debug
}

// DebugFromEnv 环境变量是否要求输出调试日志
func DebugFromEnv() bool {
	switch strings.ToLower(os.Getenv(EnvDebug)) {
	case "1", "true", "on":
		return true
	}
	return false
}

// New 创建日志记录器；未启用时返回 zap.NewNop()
func New(opts Options) (*zap.Logger, error) {
	level := opts.Level
	if opts.Verbose || DebugFromEnv() {
		level = "debug"
	}
	if level == "" {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	if opts.File != "" {
		// 打开文件失败时仍然输出到标准错误
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", opts.File, err)
		} else {
			f.Close()
			cfg.OutputPaths = []string{opts.File}
		}
	}
	return cfg.Build()
}

// OrNop 把 nil 替换为空日志记录器
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
