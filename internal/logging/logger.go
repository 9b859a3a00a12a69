package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "pingwatch.log"

type options struct {
	level  zapcore.Level
	stderr bool
}

type Option func(*options)

// WithLevel sets the minimum level from text such as "debug" or "warn".
// Unknown text keeps info.
func WithLevel(text string) Option {
	return func(o *options) {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(text)); err == nil {
			o.level = l
		}
	}
}

// WithStderr also writes every entry to stderr.
func WithStderr(on bool) Option { return func(o *options) { o.stderr = on } }

func NewLogger(logDir string, opts ...Option) (*zap.Logger, error) {
	o := options{level: zap.InfoLevel}
	for _, fn := range opts {
		fn(&o)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(cfg)

	core := zapcore.NewCore(enc, w, o.level)
	if o.stderr {
		core = zapcore.NewTee(core, zapcore.NewCore(enc, zapcore.Lock(os.Stderr), o.level))
	}
	return zap.New(core, zap.AddCaller()), nil
}
