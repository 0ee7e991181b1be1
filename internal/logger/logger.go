package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"log/slog"
)

// Logger 封装 slog，由 main 显式构造后注入各组件，避免进程级单例。
// 核心组件（position/decision/guard）不直接写日志，只有 agent 层持有 Logger。
type Logger struct {
	base     *slog.Logger
	levelVar *slog.LevelVar
	llm      llmSink
}

func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	var lv slog.LevelVar
	lv.Set(parseLevel(level))
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &lv})
	return &Logger{base: slog.New(handler), levelVar: &lv}
}

// Nop 返回丢弃所有输出的 Logger，供测试使用。
func Nop() *Logger {
	return New(io.Discard, "error")
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) SetLevel(level string) {
	if l == nil || l.levelVar == nil {
		return
	}
	l.levelVar.Set(parseLevel(level))
}

func (l *Logger) Debugf(format string, v ...any) {
	if l == nil {
		return
	}
	l.base.Debug(fmt.Sprintf(format, v...))
}

func (l *Logger) Infof(format string, v ...any) {
	if l == nil {
		return
	}
	l.base.Info(fmt.Sprintf(format, v...))
}

func (l *Logger) Warnf(format string, v ...any) {
	if l == nil {
		return
	}
	l.base.Warn(fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(format string, v ...any) {
	if l == nil {
		return
	}
	l.base.Error(fmt.Sprintf(format, v...))
}

// InfoBlock 将多行文本逐行输出，保持每行独立的时间戳前缀。
func (l *Logger) InfoBlock(block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	for _, line := range strings.Split(block, "\n") {
		l.Infof("%s", line)
	}
}
