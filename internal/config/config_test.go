package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("server", flag.ContinueOnError)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 100, cfg.CommandQueueSize)
	assert.Equal(t, 100, cfg.SubscriberBuffer)
	assert.Equal(t, 3, cfg.ConsensusThreshold)
	assert.Empty(t, cfg.RulesScript)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"http://localhost:8080", "http://127.0.0.1:8080"}, cfg.OriginAllowlist)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ORIGIN_ALLOWLIST", "https://a.example, https://b.example")
	t.Setenv("CONSENSUS_THRESHOLD", "5")
	t.Setenv("RULES_SCRIPT", "/etc/rules/fairy.lua")

	cfg, err := Parse(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.OriginAllowlist)
	assert.Equal(t, 5, cfg.ConsensusThreshold)
	assert.Equal(t, "/etc/rules/fairy.lua", cfg.RulesScript)
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := Parse(newFlagSet(), []string{"-port", "9100", "-threshold", "2", "-origins", "http://x.test", "-log-format", "console"})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 2, cfg.ConsensusThreshold)
	assert.Equal(t, []string{"http://x.test"}, cfg.OriginAllowlist)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestParseErrors(t *testing.T) {
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("PORT", "not-a-port")
		_, err := Parse(newFlagSet(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := Parse(newFlagSet(), []string{"-threshold", "0"})
		assert.Error(t, err)
	})

	t.Run("invalid queue", func(t *testing.T) {
		t.Setenv("COMMAND_QUEUE_SIZE", "0")
		_, err := Parse(newFlagSet(), nil)
		assert.Error(t, err)
	})

	t.Run("nil flag set", func(t *testing.T) {
		_, err := Parse(nil, nil)
		assert.Error(t, err)
	})
}
