// Package logging builds the structured logger shared by the CLI and the
// wallet packages.
package logging

import (
	"fmt"
	"os"
	"time"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a sugared logger writing to stderr at level in the given
// format: console, json or logfmt.
func New(level, format string) (*zap.SugaredLogger, error) {
	return NewWithSyncer(level, format, zapcore.Lock(os.Stderr))
}

// NewWithSyncer is New with an explicit destination.
func NewWithSyncer(level, format string, ws zapcore.WriteSyncer) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(ts time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(ts.UTC().Format(time.RFC3339))
	}

	var encoder zapcore.Encoder
	switch format {
	case "logfmt":
		encoder = zaplogfmt.NewEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(encoder, ws, lvl)
	return zap.New(core).Sugar(), nil
}

// Install makes logger the process-wide zap logger used by zap.S().
// It returns a function restoring the previous one.
func Install(logger *zap.SugaredLogger) func() {
	return zap.ReplaceGlobals(logger.Desugar())
}
