package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		output      string
		shouldError bool
	}{
		{"debug text stderr", "debug", "text", "stderr", false},
		{"info json stdout", "info", "json", "stdout", false},
		{"warning text stderr", "warning", "text", "", false},
		{"invalid level", "verbose", "text", "stderr", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format, tt.output)
			if tt.shouldError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
		})
	}
}

func TestLoggerToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "query.log")

	log, err := New("debug", "json", logFile)
	require.NoError(t, err)

	log.Named("planner").With("query_id", "q1").Debug("planned query", "tables", 2)
	log.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"planned query"`)
	assert.Contains(t, string(content), `"query_id":"q1"`)
	assert.Contains(t, string(content), `"logger":"planner"`)
}

func TestLoggerNamedKeepsFields(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "query.log")

	log, err := New("info", "json", logFile)
	require.NoError(t, err)

	log.With("session", "s1").Named("db").Info("query")
	log.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"session":"s1"`)
	assert.Contains(t, string(content), `"logger":"db"`)
}

func TestLoggerLevelFilter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "query.log")

	log, err := New("warn", "text", logFile)
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	log.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "dropped")
	assert.Contains(t, string(content), "kept")
}

func TestLoggerNop(t *testing.T) {
	log := NewNop()
	require.NotNil(t, log)

	assert.NotPanics(t, func() {
		log.Debug("test")
		log.Info("test")
		log.Warn("test")
		log.Error("test")
		log.With("k", "v").Named("x").Info("test")
	})
}
