package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestNewLogger_WritesToConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "crewforge.log")

	logger, err := NewLogger(Config{
		Level:      INFO,
		OutputFile: logFile,
		Console:    &console,
		JSONFormat: true,
	})
	require.NoError(t, err)

	logger.With("component", "crew").Info("task finished", "task", "architecture_task")
	logger.Debug("hidden at info level")
	require.NoError(t, logger.Close())

	assert.Contains(t, console.String(), `"task":"architecture_task"`)
	assert.Contains(t, console.String(), `"component":"crew"`)
	assert.NotContains(t, console.String(), "hidden at info level")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "task finished")
}

func TestRotateIfNeeded(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "crewforge.log")
	require.NoError(t, os.WriteFile(logFile, []byte(strings.Repeat("x", 64)), 0644))

	logger, err := NewLogger(Config{
		Level:      INFO,
		OutputFile: logFile,
		Console:    &bytes.Buffer{},
		MaxSize:    32,
	})
	require.NoError(t, err)
	defer logger.Close()

	_, err = os.Stat(logFile + ".1")
	assert.NoError(t, err, "oversized log should be rotated to .1")
}

func TestInitialize_InstallsDefault(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, Initialize(Config{Level: DEBUG, Console: &console}))
	defer Close()

	Component("llm").Debug("completion", "model", "gpt-4o-mini")
	Info("global info")

	assert.True(t, IsDebugEnabled())
	assert.Equal(t, "", GetLogFilePath())
	assert.Contains(t, console.String(), "component=llm")
	assert.Contains(t, console.String(), "global info")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("logs", false)
	assert.Equal(t, INFO, cfg.Level)
	assert.True(t, cfg.JSONFormat)
	assert.True(t, strings.HasPrefix(filepath.Base(cfg.OutputFile), "crewforge_"))

	noFile := DefaultConfig("", true)
	assert.Equal(t, DEBUG, noFile.Level)
	assert.Empty(t, noFile.OutputFile)
	assert.True(t, noFile.AddSource)
}
