package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 时间格式: yy-mm-dd HH:MM:ss
const timestampFormat = "06-01-02 15:04:05"

var (
	// Logger 全局日志实例
	Logger *logrus.Logger

	logMu sync.Mutex
	// fileWriter 当前的轮转文件（未配置时为 nil）
	fileWriter *lumberjack.Logger
)

// Config 日志配置
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	OutputFile string // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize    int    // 日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
	// DisableConsole 不输出到 stdout（TUI 模式下由 RedirectToFile 接管）
	DisableConsole bool
}

// Init 初始化日志系统，同时配置全局 logrus，
// 保证各包里 logrus.WithField 创建的 logger 走同一套输出。
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var writers []io.Writer
	if !config.DisableConsole {
		writers = append(writers, os.Stdout)
	}

	fileWriter = nil
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0755); err != nil {
			return err
		}
		fileWriter = &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}
		writers = append(writers, fileWriter)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	out := io.MultiWriter(writers...)

	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		ForceColors:     config.OutputFile == "" && !config.DisableConsole,
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(formatter)
	l.SetOutput(out)

	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	Logger = l
	return nil
}

// InitDefault 使用默认配置初始化日志系统
func InitDefault() error {
	return Init(Config{
		Level:      "info",
		OutputFile: "logs/control-panel.log",
		MaxSize:    100, // 100MB
		MaxBackups: 3,
		MaxAge:     7, // 7天
		Compress:   true,
	})
}

// RedirectToFile 把全局 logrus 输出切到文件，不再写终端，避免打乱全屏 UI。
// 返回的 restore 恢复之前的输出并关闭文件。
func RedirectToFile(path string) (restore func(), err error) {
	logMu.Lock()
	defer logMu.Unlock()

	prevOut := logrus.StandardLogger().Out
	prevFormatter := logrus.StandardLogger().Formatter

	var out io.Writer
	var closer io.Closer
	switch {
	case path != "":
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		out, closer = file, file
	case fileWriter != nil:
		// 未指定时沿用已配置的轮转文件
		out = fileWriter
	default:
		out = io.Discard
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: timestampFormat,
		DisableColors:   true,
	})
	if Logger != nil {
		Logger.SetOutput(out)
	}

	return func() {
		logMu.Lock()
		defer logMu.Unlock()
		logrus.SetOutput(prevOut)
		logrus.SetFormatter(prevFormatter)
		if Logger != nil {
			Logger.SetOutput(prevOut)
		}
		if closer != nil {
			_ = closer.Close()
		}
	}, nil
}

// Close 关闭轮转文件
func Close() error {
	logMu.Lock()
	defer logMu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Errorf(format, args...)
	}
}
