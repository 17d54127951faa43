// Package config loads server settings from the environment, then lets
// command-line flags override them.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration.
type Config struct {
	Port            int      `env:"PORT" envDefault:"8080"`
	OriginAllowlist []string `env:"ORIGIN_ALLOWLIST" envSeparator:","`

	CommandQueueSize   int    `env:"COMMAND_QUEUE_SIZE" envDefault:"100"`
	SubscriberBuffer   int    `env:"SUBSCRIBER_BUFFER" envDefault:"100"`
	ConsensusThreshold int    `env:"CONSENSUS_THRESHOLD" envDefault:"3"`
	RulesScript        string `env:"RULES_SCRIPT"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Parse reads the environment into a Config and applies flags from args.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	origins := strings.Join(cfg.OriginAllowlist, ",")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&origins, "origins", origins, "comma separated websocket origin allowlist")
	fs.IntVar(&cfg.CommandQueueSize, "queue", cfg.CommandQueueSize, "per match command queue capacity")
	fs.IntVar(&cfg.SubscriberBuffer, "subscriber-buffer", cfg.SubscriberBuffer, "per client event buffer")
	fs.IntVar(&cfg.ConsensusThreshold, "threshold", cfg.ConsensusThreshold, "rejections before a proposal is forced")
	fs.StringVar(&cfg.RulesScript, "rules", cfg.RulesScript, "Lua rule pack replacing the built-in pieces")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "json or console")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.OriginAllowlist = splitList(origins)
	if len(cfg.OriginAllowlist) == 0 {
		port := strconv.Itoa(cfg.Port)
		cfg.OriginAllowlist = []string{"http://localhost:" + port, "http://127.0.0.1:" + port}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("port %d out of range", c.Port)
	case c.CommandQueueSize < 1:
		return fmt.Errorf("command queue size must be positive, got %d", c.CommandQueueSize)
	case c.SubscriberBuffer < 1:
		return fmt.Errorf("subscriber buffer must be positive, got %d", c.SubscriberBuffer)
	case c.ConsensusThreshold < 1:
		return fmt.Errorf("consensus threshold must be positive, got %d", c.ConsensusThreshold)
	}
	return nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
