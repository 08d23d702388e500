package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/ppa-crm/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel(" DEBUG "))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestEncodingFollowsEnvironmentUnlessForced(t *testing.T) {
	assert.Equal(t, "json", encoding("", true))
	assert.Equal(t, "console", encoding("", false))
	assert.Equal(t, "json", encoding("JSON", false))
	assert.Equal(t, "console", encoding("console", true))
	assert.Equal(t, "json", encoding("logfmt", true))
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "error"}, config.AppConfig{Name: "ppa-crm", Version: "test", Env: "production"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
