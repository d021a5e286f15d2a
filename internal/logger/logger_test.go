package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	} {
		require.Equal(t, want, parseLevel(in), in)
	}
}

func TestConsoleCore(t *testing.T) {
	var buf bytes.Buffer
	log := zap.New(consoleCore(&buf, false, zapcore.InfoLevel))
	log.Debug("hidden")
	log.Warn("tile done", zap.Int("tile", 3))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "WARN tile done")
	require.Contains(t, out, `"tile": 3`)
	// no ANSI escapes without a terminal
	require.NotContains(t, out, "\x1b[")
}

func TestFileCore(t *testing.T) {
	var buf bytes.Buffer
	Log = zap.New(fileCore(&buf, zapcore.DebugLevel), zap.AddCaller())
	t.Cleanup(func() { Log = zap.NewNop() })

	Debug("debug line")
	Info("info line")
	Warn("warn line", zap.Int("tile", 7))
	Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "DEBUG")
	require.Contains(t, lines[0], "logger_test.go")
	require.Contains(t, lines[2], `"tile": 7`)
}

func TestInitWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "bake.log")
	require.NoError(t, Init("warn", logFile))
	t.Cleanup(func() { Log = zap.NewNop() })

	Info("skipped")
	Error("kept")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.NotContains(t, string(data), "skipped")
	require.Contains(t, string(data), "ERROR")
	require.Contains(t, string(data), "kept")
}
