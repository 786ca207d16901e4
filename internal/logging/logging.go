package logging

import (
	"fmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"path/filepath"
)

// New 按配置构建生产日志，file 为空时写 stderr
func New(level, file string) (*zap.Logger, error) {
	if file == "" {
		file = "stderr"
	}

	// 确保日志目录存在
	if file != "stderr" && file != "stdout" {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	logConfig := zap.NewProductionConfig()
	logConfig.OutputPaths = []string{file}
	logConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if level == "debug" {
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return logConfig.Build()
}
