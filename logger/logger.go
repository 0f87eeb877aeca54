package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the console logger used across the bot. level may be empty, in
// which case debug logging is enabled.
func New(name, level string) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	logLevel := zapcore.DebugLevel
	if level != "" {
		if l, err := zapcore.ParseLevel(level); err == nil {
			logLevel = l
		}
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(logLevel),
	)
	return zap.New(core, zap.AddCaller()).Named(name)
}

// BadgerLogger is a wrapper around zap that implements badger.Logger
type BadgerLogger struct {
	log *zap.SugaredLogger
}

func Badger(l *zap.Logger) *BadgerLogger {
	return &BadgerLogger{l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (z *BadgerLogger) Errorf(template string, args ...interface{}) {
	z.log.Errorf(template, args...)
}

func (z *BadgerLogger) Warningf(template string, args ...interface{}) {
	z.log.Warnf(template, args...)
}

func (z *BadgerLogger) Infof(template string, args ...interface{}) {
	z.log.Infof(template, args...)
}

func (z *BadgerLogger) Debugf(template string, args ...interface{}) {
	z.log.Debugf(template, args...)
}
