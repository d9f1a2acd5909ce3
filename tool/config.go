package tool

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/tvremote-go/types"
)

var ConfigPath = "tvremote.yaml" // default location, read only when present

// DefaultServiceTypes are probed in this order every discovery round.
var DefaultServiceTypes = []string{
	"urn:samsung.com:service:MultiScreenService:1",
	"urn:samsung.com:device:RemoteControlReceiver:1",
	"upnp:rootdevice",
	"ssdp:all",
}

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		ListenWindowMs:      2500,
		MX:                  1,
		MulticastAddress:    "239.255.255.250",
		MulticastPort:       1900,
		ServiceTypes:        append([]string(nil), DefaultServiceTypes...),
		Vendor:              "samsung",
		LikelyThreshold:     3,
		DescriptorTimeoutMs: 2000,
		StatusTimeoutMs:     1500,
		ConnectTimeoutMs:    3000,
		SettleDelayMs:       150,
		UserAgent:           DefaultUserAgent,
		AppName:             "TVVolumeRemote",
		RemotePort:          StatusPort,
		RepeatCount:         1,
		InterSendDelayMs:    250,
		Concurrency:         8,
		ProbeRatePPS:        0,
		PingHint:            false,
		APIListen:           "127.0.0.1:53318",
	}
}

// LoadConfig reads path over the defaults. An empty path means the default
// location, which may be absent; an explicit path must exist.
func LoadConfig(path string) (types.AppConfig, error) {
	explicit := path != ""
	if path == "" {
		path = ConfigPath
	}
	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			DefaultLogger.Debugf("No config file at %s, using defaults", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	normalizeConfig(&cfg)
	return cfg, nil
}

// normalizeConfig restores defaults for values a partial file left invalid.
func normalizeConfig(cfg *types.AppConfig) {
	def := DefaultConfig()
	if cfg.ListenWindowMs <= 0 {
		cfg.ListenWindowMs = def.ListenWindowMs
	}
	if cfg.MX <= 0 {
		cfg.MX = def.MX
	}
	if cfg.MulticastAddress == "" {
		cfg.MulticastAddress = def.MulticastAddress
	}
	if cfg.MulticastPort <= 0 {
		cfg.MulticastPort = def.MulticastPort
	}
	if len(cfg.ServiceTypes) == 0 {
		cfg.ServiceTypes = def.ServiceTypes
	}
	if cfg.Vendor == "" {
		cfg.Vendor = def.Vendor
	}
	if cfg.LikelyThreshold <= 0 {
		cfg.LikelyThreshold = def.LikelyThreshold
	}
	if cfg.DescriptorTimeoutMs <= 0 {
		cfg.DescriptorTimeoutMs = def.DescriptorTimeoutMs
	}
	if cfg.StatusTimeoutMs <= 0 {
		cfg.StatusTimeoutMs = def.StatusTimeoutMs
	}
	if cfg.ConnectTimeoutMs <= 0 {
		cfg.ConnectTimeoutMs = def.ConnectTimeoutMs
	}
	if cfg.SettleDelayMs < 0 {
		cfg.SettleDelayMs = def.SettleDelayMs
	}
	if cfg.AppName == "" {
		cfg.AppName = def.AppName
	}
	if cfg.RemotePort <= 0 {
		cfg.RemotePort = def.RemotePort
	}
	if cfg.RepeatCount <= 0 {
		cfg.RepeatCount = def.RepeatCount
	}
	if cfg.InterSendDelayMs < 0 {
		cfg.InterSendDelayMs = def.InterSendDelayMs
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.APIListen == "" {
		cfg.APIListen = def.APIListen
	}
}
