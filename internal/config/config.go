// Package config loads credential configuration from the environment.
package config

import "os"

// Environment variable names for the two credential slots.
const (
	EnvPrimaryKey   = "GOOGLE_API_KEY"
	EnvSecondaryKey = "GOOGLE_API_KEY_2"
)

// Config holds the two API credential slots. Missing credentials are not a
// startup error; requests are rejected before any model work instead.
type Config struct {
	PrimaryKey   string
	SecondaryKey string
}

// FromEnv reads both credential slots. The secondary slot falls back to the
// primary when unset, so a single-key deployment routes both characters
// through one credential.
func FromEnv() Config {
	c := Config{
		PrimaryKey:   os.Getenv(EnvPrimaryKey),
		SecondaryKey: os.Getenv(EnvSecondaryKey),
	}
	if c.SecondaryKey == "" {
		c.SecondaryKey = c.PrimaryKey
	}
	return c
}

// HasCredentials reports whether negotiation requests can be served.
func (c Config) HasCredentials() bool {
	return c.PrimaryKey != ""
}
