package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chartgate.log")
	l := New(&Config{Level: "warn", Format: "json", Output: "file", FilePath: path, MaxSize: 1})

	l.Info("hidden")
	l.Warn("task superseded")
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, `"msg":"task superseded"`)
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestL_DefaultsWithoutInit(t *testing.T) {
	assert.NotNil(t, L())
}

func TestWrappers_WriteToGlobalLogger(t *testing.T) {
	once.Do(func() {})
	prev := log
	t.Cleanup(func() { log = prev })

	core, logs := observer.New(zapcore.DebugLevel)
	log = zap.New(core, zap.AddCaller())

	Debug("chart requested", zap.String("metric", "m1"))
	Info("chart served")
	Warn("request abandoned")
	Error("encode chart")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "m1", entries[0].ContextMap()["metric"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	// o caller aponta para quem chamou o wrapper, não para este pacote
	assert.Contains(t, entries[1].Caller.File, "logger_test.go")
}
