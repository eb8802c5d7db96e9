package sysutil

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *zap.Logger
var LogSugar *zap.SugaredLogger

// LogConfig controls where diagnostics go. Stdout is never used: it carries the JSON snapshots.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Dev   bool   `mapstructure:"dev"`
	File  string `mapstructure:"file"`
}

func InitLogger(cfg LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder // 格式化时间输出
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.Dev {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder // 彩色级别
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if cfg.File != "" {
		rotate := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    1,
			MaxBackups: 2,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotate),
			level,
		))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	LogSugar = Log.Sugar()
	return nil
}

// L returns the process logger, or a no-op logger before InitLogger ran.
func L() *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log
}
