// Package logging builds the watchdog's log tee: console, a local file, and
// optionally a Telegram alert channel. It hands back both a logr.Logger for
// collaborators and the event sink the decision engine emits through.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stepherg/cellwatch"
)

// Config selects the sinks. The zero value gives console-only logging at
// info level.
type Config struct {
	// Env switches the log file location: "development" keeps it in the
	// working directory, anything else under the user's home.
	Env   string
	Level string

	// FilePath overrides the default log file location. Empty selects the
	// per-Env default; "-" disables the file sink.
	FilePath string

	Telegram TelegramConfig
}

// Configure builds the tee and returns a collaborator logger plus the
// decision-engine sink, both backed by the same cores.
func Configure(cfg Config) (logr.Logger, cellwatch.EventSink, error) {
	level := parseLevel(cfg.Level, zapcore.InfoLevel)

	encCfg := zap.NewProductionEncoderConfig()
	if cfg.Env == "development" {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
	}

	if path := cfg.logFilePath(); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			// a missing file sink must not take the watchdog down
			fmt.Fprintf(os.Stderr, "log file unavailable: %v\n", err)
		} else {
			cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(f), level))
		}
	}

	if cfg.Telegram.Enabled() {
		cores = append(cores, NewTelegramCore(cfg.Telegram))
	}

	zl := zap.New(zapcore.NewTee(cores...))
	return zapr.NewLogger(zl), &zapSink{log: zl.Sugar()}, nil
}

func (c Config) logFilePath() string {
	switch c.FilePath {
	case "-":
		return ""
	case "":
		if c.Env == "development" {
			return "app.log"
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, "cellwatch.log")
	default:
		return c.FilePath
	}
}

func parseLevel(s string, def zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "critical":
		return zapcore.DPanicLevel
	case "":
		return def
	default:
		return def
	}
}

// zapSink adapts the shared zap tee to the engine's EventSink contract.
// Critical maps to DPanic; the cores are built without the development
// option, so it logs at high severity without panicking.
type zapSink struct {
	log *zap.SugaredLogger
}

func (s *zapSink) Emit(level cellwatch.Level, msg string, keysAndValues ...any) {
	switch level {
	case cellwatch.LevelDebug:
		s.log.Debugw(msg, keysAndValues...)
	case cellwatch.LevelInfo:
		s.log.Infow(msg, keysAndValues...)
	case cellwatch.LevelWarning:
		s.log.Warnw(msg, keysAndValues...)
	case cellwatch.LevelError:
		s.log.Errorw(msg, keysAndValues...)
	case cellwatch.LevelCritical:
		s.log.DPanicw(msg, keysAndValues...)
	default:
		s.log.Infow(msg, keysAndValues...)
	}
}
