package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("json at info", func(t *testing.T) {
		l, err := New("info", FormatJSON)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("console at debug", func(t *testing.T) {
		l, err := New("debug", FormatConsole)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("empty format defaults to json", func(t *testing.T) {
		_, err := New("warn", "")
		assert.NoError(t, err)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New("loud", FormatJSON)
		assert.Error(t, err)
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := New("info", "xml")
		assert.Error(t, err)
	})
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
