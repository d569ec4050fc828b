// Package logging implements the structured logging sink the training core
// writes its info/warn events through, backed by zap with lumberjack
// rotation, mirroring the zap+lumberjack pairing used elsewhere in the
// example corpus this module is grounded on.
package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the info/warn text sink the training core depends on.
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Sync() error
}

// ZapLogger wraps a *zap.Logger.
type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger returns a ZapLogger writing JSON-encoded entries to path,
// rotated by lumberjack once it exceeds maxSizeMB. A zero maxSizeMB
// defaults to 100.
func NewZapLogger(path string, maxSizeMB int) *ZapLogger {
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), zap.InfoLevel)
	return &ZapLogger{z: zap.New(core)}
}

// NewNop returns a ZapLogger that discards everything, for tests.
func NewNop() *ZapLogger {
	return &ZapLogger{z: zap.NewNop()}
}

func (l *ZapLogger) Info(msg string, fields ...zap.Field) { l.z.Info(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...zap.Field) { l.z.Warn(msg, fields...) }
func (l *ZapLogger) Sync() error                          { return l.z.Sync() }
