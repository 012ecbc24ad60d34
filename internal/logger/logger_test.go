package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"pharmacy/m/internal/config"
)

func TestNewRespectsLevel(t *testing.T) {
	log, err := New(config.LoggerConfig{Level: "warn", Encoding: "json"}, false)
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "loud"}, true)
	assert.Error(t, err)
}
