package telemetry

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debugf(tmp string, args ...interface{})
	Infof(tmp string, args ...interface{})
	Warnf(tmp string, args ...interface{})
	Errorf(tmp string, args ...interface{})
	Fatalf(tmp string, args ...interface{})
	Panicf(tmp string, args ...interface{})
	Sync() error
}

type ZapLogger struct {
	logger *zap.SugaredLogger
}

type Config struct {
	ServiceName, ServiceHost, LogFileName string

	// Level defaults to debug when empty or unparsable
	Level string

	// ExportWriter receives the stdout trace and metric exporters output, os.Stderr if nil
	ExportWriter io.Writer
}

func NewZapLogger(cfg Config) *ZapLogger {
	config := zap.NewProductionEncoderConfig()
	config.TimeKey = "@timestamp"
	config.MessageKey = "message"
	config.LevelKey = "log.level"
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	fileEncoder := zapcore.NewJSONEncoder(config)
	consoleEncoder := zapcore.NewConsoleEncoder(config)

	level := zapcore.DebugLevel
	if cfg.Level != "" {
		if l, err := zapcore.ParseLevel(cfg.Level); err == nil {
			level = l
		}
	}

	logFields := zap.Fields(
		zap.String("service.name", cfg.ServiceName),
		zap.String("service.host", cfg.ServiceHost),
	)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	}
	if cfg.LogFileName != "" {
		if logFile, err := os.OpenFile(cfg.LogFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), level))
		}
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel), logFields)
	return &ZapLogger{
		logger: logger.Sugar(),
	}
}

// NewNopLogger returns a logger that discards everything, used until Init is called
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

func (zl *ZapLogger) Debugf(tmp string, args ...interface{}) {
	zl.logger.Debugf(tmp, args...)
}

func (zl *ZapLogger) Infof(tmp string, args ...interface{}) {
	zl.logger.Infof(tmp, args...)
}

func (zl *ZapLogger) Warnf(tmp string, args ...interface{}) {
	zl.logger.Warnf(tmp, args...)
}

func (zl *ZapLogger) Errorf(tmp string, args ...interface{}) {
	zl.logger.Errorf(tmp, args...)
}

func (zl *ZapLogger) Fatalf(tmp string, args ...interface{}) {
	zl.logger.Fatalf(tmp, args...)
}

func (zl *ZapLogger) Panicf(tmp string, args ...interface{}) {
	zl.logger.Panicf(tmp, args...)
}

func (zl *ZapLogger) Sync() error {
	return zl.logger.Sync()
}
