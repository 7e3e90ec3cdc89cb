package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clubbot/internal/config"
)

func TestNewDevelopment(t *testing.T) {
	log, err := New(&config.Config{AppEnv: "development"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
	assert.Same(t, log, zap.L())
}

func TestNewProduction(t *testing.T) {
	log, err := New(&config.Config{AppEnv: "production"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}
