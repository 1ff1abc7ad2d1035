package session

import (
	"time"

	"github.com/minisock/onemectl/internal/protocol/payload"
)

// TLSConfig controls the encrypted channel to the server.
type TLSConfig struct {
	ServerName         string
	CAFile             string
	InsecureSkipVerify bool
}

// Config defines connection and correlation defaults.
type Config struct {
	Addr              string
	ConnectTimeout    time.Duration
	RequestTimeout    time.Duration
	KeepaliveInterval time.Duration
	// MaxInflateBytes bounds decompression of a compressed-flagged frame.
	MaxInflateBytes int
	TLS             TLSConfig
	// Dial overrides the transport; tests substitute net.Pipe ends.
	Dial Dialer
}

// DefaultConfig returns the defaults observed against the production server.
func DefaultConfig() Config {
	return Config{
		Addr:              "api.oneme.ru:443",
		ConnectTimeout:    10 * time.Second,
		RequestTimeout:    30 * time.Second,
		KeepaliveInterval: 30 * time.Second,
		MaxInflateBytes:   payload.MaxBlockSize,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = def.KeepaliveInterval
	}
	if c.MaxInflateBytes <= 0 {
		c.MaxInflateBytes = def.MaxInflateBytes
	}
	if c.Dial == nil {
		c.Dial = DialTLS
	}
	return c
}
