package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	StateDir    string `toml:"state_dir"`
	KeepBackups int    `toml:"keep_backups"`

	WarnDays int `toml:"warn_days"`
	KickDays int `toml:"kick_days"`

	NewUserInterval    string `toml:"new_user_interval"`
	InactivityInterval string `toml:"inactivity_interval"`
	NotifyInterval     string `toml:"notify_interval"`

	DryRun     *bool    `toml:"dry_run"`
	AdminEmail string   `toml:"admin_email"`
	VIPNames   []string `toml:"vip_names"`

	AccessURL      string `toml:"access_url"`
	AccessToken    string `toml:"access_token"`
	ActivityURL    string `toml:"activity_url"`
	ActivityAPIKey string `toml:"activity_api_key"`

	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUsername string `toml:"smtp_username"`
	SMTPPassword string `toml:"smtp_password"`
	SMTPFrom     string `toml:"smtp_from"`

	AlertWebhookURL string `toml:"alert_webhook_url"`

	HealthPort int    `toml:"health_port"`
	LogLevel   string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.guardian/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".guardian", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("admin-email", fc.AdminEmail, &cfg.AdminEmail)
	s.setString("access-url", fc.AccessURL, &cfg.AccessURL)
	s.setString("access-token", fc.AccessToken, &cfg.AccessToken)
	s.setString("activity-url", fc.ActivityURL, &cfg.ActivityURL)
	s.setString("activity-api-key", fc.ActivityAPIKey, &cfg.ActivityAPIKey)
	s.setString("smtp-host", fc.SMTPHost, &cfg.SMTPHost)
	s.setString("smtp-username", fc.SMTPUsername, &cfg.SMTPUsername)
	s.setString("smtp-password", fc.SMTPPassword, &cfg.SMTPPassword)
	s.setString("smtp-from", fc.SMTPFrom, &cfg.SMTPFrom)
	s.setString("alert-webhook-url", fc.AlertWebhookURL, &cfg.AlertWebhookURL)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setStrings("vip-names", fc.VIPNames, &cfg.VIPNames)

	s.setInt("keep-backups", fc.KeepBackups, &cfg.KeepBackups)
	s.setInt("warn-days", fc.WarnDays, &cfg.WarnDays)
	s.setInt("kick-days", fc.KickDays, &cfg.KickDays)
	s.setInt("smtp-port", fc.SMTPPort, &cfg.SMTPPort)
	s.setInt("health-port", fc.HealthPort, &cfg.HealthPort)

	if err := s.setDuration("new-user-interval", fc.NewUserInterval, &cfg.NewUserInterval); err != nil {
		return err
	}
	if err := s.setDuration("inactivity-interval", fc.InactivityInterval, &cfg.InactivityInterval); err != nil {
		return err
	}
	if err := s.setDuration("notify-interval", fc.NotifyInterval, &cfg.NotifyInterval); err != nil {
		return err
	}

	s.setBool("dry-run", fc.DryRun, &cfg.DryRun)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
