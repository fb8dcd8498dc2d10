// Package logging builds the process logger for thoth-sync.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Name is the logger name every line is tagged with.
const Name = "thoth.sync"

// New returns a console logger writing to out (stderr when nil). The level is
// INFO, or DEBUG when debug is set.
func New(debug bool, out zapcore.WriteSyncer) *zap.Logger {
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.ErrorOutput(out)).Named(Name)
}
