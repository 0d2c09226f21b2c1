package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger_Stdout(t *testing.T) {
	cfg := &config.LoggerConfig{Format: "console", Color: true, TimeZone: "UTC"}
	lg, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, lg)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")
	lg, err := NewLogger(&config.LoggerConfig{Output: "file", FilePath: path, Level: "debug"})
	require.NoError(t, err)
	lg.Info("hello")
	_ = lg.Sync()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
