// Package logger is the structured logger of multisig-ops, a zap SugaredLogger behind a narrow
// interface so components can be handed a test or no-op logger.
package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the logging interface injected into every component. Components usually take a
// Named child: lggr.Named("executor").
//
// Levels
//   - Error: the run aborts and the operator must act. Example: a call reverted mid-batch
//   - Warn: unexpected but the run goes on. Example: an RPC endpoint was skipped
//   - Info: operator status lines. Example: network, totals, per-entry ledger lines
//   - Debug: forensic detail. Example: session transitions, retried reads
type Logger interface {
	// Name returns the dotted name of the logger.
	Name() string
	// Named returns a child logger with name appended.
	Named(name string) Logger

	Debugf(format string, values ...any)
	Infof(format string, values ...any)
	Warnf(format string, values ...any)

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)

	// Sync flushes buffered entries.
	Sync() error
}

// Config selects the level and the encoding of a runtime logger.
type Config struct {
	Level zapcore.Level
	// Console selects the human readable encoder used by the CLI instead of JSON.
	Console bool
}

// New returns a JSON logger at info level.
func New() (Logger, error) {
	return (&Config{Level: zapcore.InfoLevel}).New()
}

// New builds the logger described by c.
func (c *Config) New() (Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(c.Level)
	if c.Console {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zcfg.DisableStacktrace = true
		zcfg.DisableCaller = true
	}

	z, err := zcfg.Build()
	if err != nil {
		return nil, err
	}

	return &sugared{z.Sugar()}, nil
}

// Test returns a logger writing to tb at debug level.
func Test(tb testing.TB) Logger {
	tb.Helper()

	return &sugared{zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Sugar()}
}

// TestObserved returns a test logger and the entries it logged at lvl or above.
func TestObserved(tb testing.TB, lvl zapcore.Level) (Logger, *observer.ObservedLogs) {
	tb.Helper()

	core, logs := observer.New(lvl)
	tee := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	})

	return &sugared{zaptest.NewLogger(tb, zaptest.WrapOptions(tee)).Sugar()}, logs
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &sugared{zap.NewNop().Sugar()}
}

type sugared struct {
	*zap.SugaredLogger
}

func (l *sugared) Name() string {
	return l.Desugar().Name()
}

func (l *sugared) Named(name string) Logger {
	return &sugared{l.SugaredLogger.Named(name)}
}
