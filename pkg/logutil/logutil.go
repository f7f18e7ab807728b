// Copyright 2024 the vexec Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logutil wraps the process-wide zap logger. Operators log through
// here so tests and the CLI share one configuration point.
package logutil

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSize    int    `toml:"max-size"`
	MaxBackups int    `toml:"max-backups"`
	MaxDays    int    `toml:"max-days"`
}

var (
	glog     atomic.Pointer[zap.Logger]
	initOnce sync.Once
)

func init() {
	glog.Store(zap.NewNop())
}

// Setup installs the global logger from cfg. Safe to call once; later
// calls are ignored.
func Setup(cfg LogConfig) error {
	var outer error
	initOnce.Do(func() {
		logger, err := newLogger(cfg)
		if err != nil {
			outer = err
			return
		}
		glog.Store(logger)
		zap.ReplaceGlobals(logger)
	})
	return outer
}

func newLogger(cfg LogConfig) (*zap.Logger, error) {
	level := zap.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer
	if cfg.Filename != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxDays,
		})
	} else {
		sink = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	core := zapcore.NewCore(enc, sink, level)
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel)), nil
}

// GetLogger returns the installed logger, a nop logger before Setup.
func GetLogger() *zap.Logger {
	return glog.Load()
}

func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

func Debugf(format string, args ...any) {
	GetLogger().Sugar().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	GetLogger().Sugar().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	GetLogger().Sugar().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	GetLogger().Sugar().Errorf(format, args...)
}
