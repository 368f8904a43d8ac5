package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, l)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	require.Error(t, Setup(Config{Level: "info", Format: "xml"}))
	require.Error(t, Setup(Config{Level: "chatty", Format: FormatJSON}))
	require.NoError(t, Setup(Config{Level: "debug", Format: FormatJSON}))
	require.NoError(t, Setup(DefaultConfig()))
}

func TestModuleLoggers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core))
	defer Replace(zap.NewNop())

	GetLogger(ModuleRaffle).Infow("winners drawn", "raffle", 3)
	GetLogger(ModuleAuction).Debug("bid placed")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, ModuleRaffle, entries[0].LoggerName)
	require.Equal(t, int64(3), entries[0].ContextMap()["raffle"])
	require.Equal(t, ModuleAuction, entries[1].LoggerName)
	require.Same(t, GetLogger(ModuleRaffle), GetLogger(ModuleRaffle))
}
