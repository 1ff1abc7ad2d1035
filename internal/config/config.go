// Package config loads and validates the TOML client configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ClientConfig is the full client configuration: endpoint, transport
// security and the device profile announced in the handshake.
type ClientConfig struct {
	Addr   string       `toml:"addr"`
	TLS    TLSConfig    `toml:"tls"`
	Device DeviceConfig `toml:"device"`
}

type TLSConfig struct {
	ServerName         string `toml:"server_name"`
	CAFile             string `toml:"ca_file"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// DeviceConfig mirrors the userAgent block the server expects on opcode 6.
type DeviceConfig struct {
	InstanceID      string `toml:"instance_id"`
	DeviceID        string `toml:"device_id"`
	ClientSessionID int64  `toml:"client_session_id"`
	DeviceType      string `toml:"device_type"`
	AppVersion      string `toml:"app_version"`
	OSVersion       string `toml:"os_version"`
	Timezone        string `toml:"timezone"`
	Screen          string `toml:"screen"`
	PushDeviceType  string `toml:"push_device_type"`
	Arch            string `toml:"arch"`
	Locale          string `toml:"locale"`
	BuildNumber     int64  `toml:"build_number"`
	DeviceName      string `toml:"device_name"`
	DeviceLocale    string `toml:"device_locale"`
}

// DefaultClientConfig returns the production endpoint with a generic Android
// device profile.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Addr: "api.oneme.ru:443",
		Device: DeviceConfig{
			ClientSessionID: 8,
			DeviceType:      "ANDROID",
			AppVersion:      "25.14.2",
			OSVersion:       "Android 14",
			Timezone:        "Europe/Moscow",
			Screen:          "440dpi 440dpi 1080x2072",
			PushDeviceType:  "GCM",
			Arch:            "x86_64",
			Locale:          "ru",
			BuildNumber:     6442,
			DeviceName:      "unknown Android SDK built for x86_64",
			DeviceLocale:    "en",
		},
	}
}

// LoadClientConfig reads path, fills defaults for empty fields and
// validates.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultClientConfig().Addr
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("client config missing addr")
	}
	if strings.TrimSpace(cfg.Device.InstanceID) == "" {
		return fmt.Errorf("client config missing device.instance_id")
	}
	if strings.TrimSpace(cfg.Device.DeviceID) == "" {
		return fmt.Errorf("client config missing device.device_id")
	}
	return nil
}
