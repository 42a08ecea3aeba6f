package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration from config.json
type Config struct {
	BotToken string `json:"bot_token"`
	AdminID  int64  `json:"admin_id"`
	Timezone string `json:"timezone"`

	Files struct {
		KnownDevices string `json:"known_devices"`
		Aliases      string `json:"aliases"`
		DHCPLeases   string `json:"dhcp_leases"`
		UsageDB      string `json:"usage_db"`
	} `json:"files"`

	Network struct {
		// MonitorIfaces overrides WAN autodetection for the live dashboard.
		MonitorIfaces []string `json:"monitor_interfaces"`
		LANBridge     string   `json:"lan_bridge"`
		GuestIface    string   `json:"guest_wifi_iface"`

		DefaultDownMbps float64 `json:"default_down_mbps"`
		DefaultUpMbps   float64 `json:"default_up_mbps"`
		IfaceSpeeds     map[string]struct {
			DownMbps float64 `json:"down_mbps"`
			UpMbps   float64 `json:"up_mbps"`
		} `json:"interface_speeds"`
		MaxDiskBps float64 `json:"max_disk_bps"`
	} `json:"network"`

	Intervals struct {
		LiveSeconds   int `json:"live_seconds"`
		WanSeconds    int `json:"wan_seconds"`
		DeviceSeconds int `json:"device_seconds"`
		CPUSeconds    int `json:"cpu_seconds"`
	} `json:"intervals"`

	CPUAlert struct {
		LoadThreshold   float64 `json:"load_threshold"`
		DurationMinutes int     `json:"duration_minutes"`
	} `json:"cpu_alert"`

	Report struct {
		Enabled bool `json:"enabled"`
		Hour    int  `json:"hour"`
		Minute  int  `json:"minute"`
	} `json:"report"`
}

// loadConfig reads config.json, fills defaults and applies env overrides.
// A missing file is fine as long as token and admin arrive via environment.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else {
		slog.Warn("config file not found, relying on defaults and environment", "path", path)
	}

	if tok := os.Getenv("WRTBOT_TOKEN"); tok != "" {
		cfg.BotToken = tok
	}
	if raw := os.Getenv("WRTBOT_ADMIN_ID"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.AdminID = id
		}
	}

	applyConfigDefaults(cfg)
	return cfg, nil
}

// applyConfigDefaults sets sensible defaults for missing configuration
func applyConfigDefaults(cfg *Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if cfg.Files.KnownDevices == "" {
		cfg.Files.KnownDevices = "known_devices.json"
	}
	if cfg.Files.Aliases == "" {
		cfg.Files.Aliases = "device_aliases.json"
	}
	if cfg.Files.DHCPLeases == "" {
		cfg.Files.DHCPLeases = "/tmp/dhcp.leases"
	}
	if cfg.Files.UsageDB == "" {
		cfg.Files.UsageDB = "/tmp/usage.db"
	}

	if cfg.Network.LANBridge == "" {
		cfg.Network.LANBridge = "br-lan"
	}
	if cfg.Network.DefaultDownMbps <= 0 {
		cfg.Network.DefaultDownMbps = 100
	}
	if cfg.Network.DefaultUpMbps <= 0 {
		cfg.Network.DefaultUpMbps = 10
	}
	if cfg.Network.MaxDiskBps <= 0 {
		cfg.Network.MaxDiskBps = 50 * 1024 * 1024
	}

	if cfg.Intervals.LiveSeconds <= 0 {
		cfg.Intervals.LiveSeconds = 2
	}
	if cfg.Intervals.WanSeconds <= 0 {
		cfg.Intervals.WanSeconds = 300
	}
	if cfg.Intervals.DeviceSeconds <= 0 {
		cfg.Intervals.DeviceSeconds = 60
	}
	if cfg.Intervals.CPUSeconds <= 0 {
		cfg.Intervals.CPUSeconds = 60
	}

	if cfg.CPUAlert.LoadThreshold <= 0 {
		cfg.CPUAlert.LoadThreshold = 90
	}
	if cfg.CPUAlert.DurationMinutes <= 0 {
		cfg.CPUAlert.DurationMinutes = 5
	}

	if cfg.Report.Hour == 0 && cfg.Report.Minute == 0 {
		cfg.Report.Enabled = true
		cfg.Report.Hour = 8
	}
}

// Location resolves the configured timezone, falling back to the system one.
func (cfg *Config) Location() *time.Location {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("invalid timezone in config, using local", "tz", cfg.Timezone, "err", err)
		return time.Local
	}
	return loc
}

// LiveInterval is the refresh cadence of a live dashboard session.
func (cfg *Config) LiveInterval() time.Duration {
	return time.Duration(cfg.Intervals.LiveSeconds) * time.Second
}
