// Package config loads UFT's runtime configuration from the environment,
// the way raiden-staging-kernel-images/server/cmd/config loads its own:
// github.com/kelseyhightower/envconfig fills a struct from UFT_*
// variables, then a validate pass rejects nonsensical values. CLI flags
// layered on top by the cmd/ drivers take precedence over both.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/snajudev/uft/internal/session"
)

// Config is the full set of tunables a uft-server or uft-client process
// accepts, matching the defaults stated in spec.md §6.
type Config struct {
	Host         string `envconfig:"HOST" default:"0.0.0.0"`
	Port         int    `envconfig:"PORT" default:"9000"`
	TimeoutMS    int    `envconfig:"TIMEOUT_MS" default:"15000"`
	ChunkSizeMiB int    `envconfig:"CHUNK_SIZE_MIB" default:"10"`
	Backlog      int    `envconfig:"BACKLOG" default:"10"`
	TransferMode string `envconfig:"TRANSFER_MODE" default:"auto"`
}

// Load populates a Config from UFT_-prefixed environment variables and
// validates it.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("UFT", &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(c *Config) error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("config: timeout_ms must be positive")
	}
	if c.ChunkSizeMiB <= 0 {
		return fmt.Errorf("config: chunk_size_mib must be positive")
	}
	if c.Backlog < 1 || c.Backlog > 10 {
		return fmt.Errorf("config: backlog %d out of the documented 1..10 range", c.Backlog)
	}
	switch session.TransferMode(c.TransferMode) {
	case session.TransferModeAuto, session.TransferModeFull, session.TransferModeDelta:
	default:
		return fmt.Errorf("config: transfer_mode %q is not one of auto|full|delta", c.TransferMode)
	}
	return nil
}

// SessionConfig translates the loaded Config into a session.Config.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Timeout:      time.Duration(c.TimeoutMS) * time.Millisecond,
		ChunkSize:    c.ChunkSizeMiB * 1024 * 1024,
		TransferMode: session.TransferMode(c.TransferMode),
	}
}
