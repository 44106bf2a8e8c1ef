package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger 全局日志实例
	Logger *logrus.Logger
	// logMu 初始化/重配置锁
	logMu sync.Mutex
)

// Config 日志配置
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	OutputFile string // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize    int    // 日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
}

// Init 初始化日志系统
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	logger := logrus.New()

	// 设置日志级别
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// 设置日志格式
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05", // 格式: yy-mm-dd HH:MM:ss
		ForceColors:     true,
	})

	// 设置输出（控制台 + 可选文件轮转）
	if config.OutputFile != "" {
		if dir := filepath.Dir(config.OutputFile); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		rotator := &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    orDefault(config.MaxSize, 50),
			MaxBackups: orDefault(config.MaxBackups, 5),
			MaxAge:     orDefault(config.MaxAge, 14),
			Compress:   config.Compress,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	} else {
		logger.SetOutput(os.Stdout)
	}

	Logger = logger
	// 标准 logrus 入口指向同一配置，方便各包直接 logrus.WithField
	logrus.SetLevel(level)
	logrus.SetFormatter(logger.Formatter)
	logrus.SetOutput(logger.Out)
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// TruncateSecret 截断敏感字符串用于日志输出（只保留前 4 位）。
// 凭证不允许完整出现在任何日志里。
func TruncateSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
