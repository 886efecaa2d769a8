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
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	lg, closeLog, err := NewLogger(Config{Level: "info", File: path, Production: true})
	require.NoError(t, err)

	lg.Debug("hidden")
	lg.Info("visible", zap.Int64(FieldUID, 9))
	require.NoError(t, closeLog())
	// 重复关闭无副作用
	require.NoError(t, closeLog())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"visible"`)
	assert.Contains(t, string(b), `"uid":9`)
	assert.NotContains(t, string(b), "hidden")
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, _, err := NewLogger(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLogger_CloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	for i := 0; i < 3; i++ {
		lg, closeLog, err := NewLogger(Config{File: path, Production: true})
		require.NoError(t, err)
		lg.Info("round", zap.Int("n", i))
		require.NoError(t, closeLog())
	}

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(b), `"msg":"round"`))
}

func TestNewLogger_ConsoleOnlyClose(t *testing.T) {
	_, closeLog, err := NewLogger(Config{Level: "warn"})
	require.NoError(t, err)
	assert.NoError(t, closeLog())
}
