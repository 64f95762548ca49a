package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Verbose bool
	JSON    bool
	// Writer defaults to stderr; stdout is reserved for transcripts.
	Writer io.Writer
}

func New(opts Options) *zap.Logger {
	level := zapcore.InfoLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encCfg.CallerKey = ""
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(writer)), zap.NewAtomicLevelAt(level))

	var zapOpts []zap.Option
	if opts.Verbose {
		zapOpts = append(zapOpts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, zapOpts...)
}
