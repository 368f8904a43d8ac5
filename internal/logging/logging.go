/*
SPDX-License-Identifier: Apache-2.0
*/

// Package logging hands out named zap loggers for the chaincode modules.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module names prefixed to every log line.
const (
	ModuleContract = "[Contract]"
	ModuleAuction  = "[Auction]"
	ModuleRaffle   = "[Raffle]"
	ModuleLedger   = "[Ledger]"
	ModuleCli      = "[Cli]"
)

// Console and JSON are the supported encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects the level and the encoding of the root logger.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig logs info and above to the console.
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatConsole}
}

var (
	mu      sync.Mutex
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	root    *zap.Logger
	loggers = map[string]*zap.SugaredLogger{}
)

// ParseLevel maps a level name such as "debug" or "WARN" to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return l, nil
}

func build(config Config) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch config.Format {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case FormatConsole, "":
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("invalid log format %q", config.Format)
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller()), nil
}

// Setup replaces the root logger for loggers fetched afterwards. The level is
// shared, so loggers fetched earlier follow level changes.
func Setup(config Config) error {
	l, err := ParseLevel(config.Level)
	if err != nil {
		return err
	}
	logger, err := build(config)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	level.SetLevel(l)
	root = logger
	for name := range loggers {
		loggers[name] = root.Named(name).Sugar()
	}
	return nil
}

// Replace installs logger as the root logger, typically zap.NewNop() or a
// zaptest logger in tests.
func Replace(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	root = logger
	for name := range loggers {
		loggers[name] = root.Named(name).Sugar()
	}
}

// GetLogger returns the logger of module name.
func GetLogger(name string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[name]; ok {
		return l
	}
	if root == nil {
		logger, err := build(DefaultConfig())
		if err != nil {
			logger = zap.NewNop()
		}
		root = logger
	}
	l := root.Named(name).Sugar()
	loggers[name] = l
	return l
}
