package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("", true))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("", false))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info", true))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" WARNING ", false))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error", true))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose", false))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(false, "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	dev, err := NewLogger(true, "")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}
