// Package logging provides configurable zap logger construction for the
// scholarsearch service.
package logging

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Style selects the log encoding used by NewLogger.
type Style string

const (
	StyleTerminal Style = "terminal"
	StyleJson     Style = "json"
	StyleLogfmt   Style = "logfmt"
	StyleNoop     Style = "noop"
)

// Config controls logger construction. Zero value yields a terminal logger
// at info level.
type Config struct {
	Style Style  `yaml:"style" json:"style"`
	Level string `yaml:"level" json:"level"`
}

// NewLogger creates a zap logger based on the Config settings. If config is
// nil or has empty fields, it defaults to terminal style at info level.
func NewLogger(c *Config) *zap.Logger {
	var err error
	var logger *zap.Logger

	style := StyleTerminal
	level := zapcore.InfoLevel

	if c != nil {
		if c.Style != "" {
			style = c.Style
		}
		if c.Level != "" {
			if lvl, parseErr := zapcore.ParseLevel(c.Level); parseErr == nil {
				level = lvl
			}
		}
	}

	switch style {
	case StyleNoop:
		logger = zap.NewNop()
	case StyleJson:
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	case StyleTerminal:
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	case StyleLogfmt:
		encoderConfig := zapcore.EncoderConfig{
			TimeKey:       "ts",
			LevelKey:      "lvl",
			NameKey:       "logger",
			CallerKey:     "caller",
			MessageKey:    "msg",
			StacktraceKey: "stacktrace",
			LineEnding:    zapcore.DefaultLineEnding,
		}
		core := zapcore.NewCore(NewLogfmtEncoder(encoderConfig), zapcore.AddSync(os.Stderr), level)
		logger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	default:
		log.Fatalf("invalid logging style %q: must be one of terminal, json, logfmt, noop", style)
	}

	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	return logger
}
