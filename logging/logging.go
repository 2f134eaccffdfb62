// Package logging 配置全局 zerolog 日志，并为各组件派生子 logger
//
// 库代码默认 Error 级别（静默），由 cmd 层按配置调用 Configure 打开。
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

// Configure 设置全局级别与输出格式
//
//	format: "text"（ConsoleWriter）| "json"
//	w:      nil 时写 stderr
func Configure(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	switch strings.ToLower(format) {
	case "", "text", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return fmt.Errorf("logging: unknown format %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	ctx := zerolog.New(w).With().Timestamp()
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger().Level(lvl)
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

// ParseLevel 解析级别名，空串视为 error
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.ErrorLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: invalid level %q: %w", s, err)
	}
	return lvl, nil
}

// Component 从全局 logger 派生带 component 字段的子 logger
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
