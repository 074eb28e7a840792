// ABOUTME: Configuration for Charm KV backend connection
// ABOUTME: Server host, auto-sync and staleness settings

package charm

import (
	"time"

	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName is the application name for Charm KV database.
	AppName = "dealboard"
)

// Config holds charm connection settings.
type Config struct {
	// Host is the charm server hostname (default: charm.2389.dev)
	Host string `json:"host,omitempty"`

	// AutoSync enables automatic sync after every write operation
	AutoSync bool `json:"auto_sync"`

	// StaleThreshold is the duration before data is considered stale and needs a sync
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`
}

// DefaultConfig returns a new config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() *Config {
	if c.Host == "" {
		c.Host = DefaultCharmHost
	}
	if c.StaleThreshold == 0 {
		c.StaleThreshold = kv.DefaultStaleThreshold
	}
	return &c
}
