package logging

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
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger_RejectsBadInput(t *testing.T) {
	_, err := NewLogger("bridge", "loud")
	assert.Error(t, err)

	_, err = NewLoggerWithConfig(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNewLoggerWithConfig_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bridge.log")
	logger, err := NewLoggerWithConfig(Config{Service: "zigzag-bridge", Level: "info", FilePath: path})
	require.NoError(t, err)

	logger.Info("frame decoded", zap.String("op", "orderreceipt"))
	logger.Debug("not written")
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `"service":"zigzag-bridge"`)
	assert.Contains(t, out, `"op":"orderreceipt"`)
	assert.False(t, strings.Contains(out, "not written"))
}
