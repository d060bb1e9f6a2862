package cliconfig

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/guardian/internal/domain"
)

// Config holds CLI configuration for guardian.
type Config struct {
	StateDir    string
	KeepBackups int

	WarnDays int
	KickDays int

	NewUserInterval    time.Duration
	InactivityInterval time.Duration
	NotifyInterval     time.Duration

	DryRun     bool
	AdminEmail string
	VIPNames   []string

	AccessURL      string
	AccessToken    string
	ActivityURL    string
	ActivityAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	AlertWebhookURL string

	HealthPort int
	LogLevel   string
}

// DefaultConfig returns a Config with default values. Dry run is on by
// default: removing real accounts requires an explicit opt-in.
func DefaultConfig() Config {
	return Config{
		StateDir:           "./data",
		KeepBackups:        5,
		WarnDays:           27,
		KickDays:           30,
		NewUserInterval:    2 * time.Minute,
		InactivityInterval: 30 * time.Minute,
		NotifyInterval:     30 * time.Second,
		DryRun:             true,
		SMTPPort:           587,
		HealthPort:         8080,
		LogLevel:           "info",
		AccessToken:        os.Getenv("GUARDIAN_ACCESS_TOKEN"),
		ActivityAPIKey:     os.Getenv("GUARDIAN_ACTIVITY_API_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.WarnDays <= 0 {
		return fmt.Errorf("%w: warn-days must be positive", domain.ErrInvalidConfig)
	}
	if c.WarnDays >= c.KickDays {
		return fmt.Errorf("%w: warn-days (%d) must be less than kick-days (%d)",
			domain.ErrInvalidConfig, c.WarnDays, c.KickDays)
	}
	if c.NewUserInterval <= 0 || c.InactivityInterval <= 0 || c.NotifyInterval <= 0 {
		return fmt.Errorf("%w: scan intervals must be positive", domain.ErrInvalidConfig)
	}
	if c.StateDir == "" {
		return fmt.Errorf("%w: state-dir is required", domain.ErrInvalidConfig)
	}
	if c.KeepBackups <= 0 {
		c.KeepBackups = 5
	}

	if c.AccessURL == "" {
		return fmt.Errorf("%w: access-url is required", domain.ErrInvalidConfig)
	}
	if c.ActivityURL == "" {
		return fmt.Errorf("%w: activity-url is required", domain.ErrInvalidConfig)
	}
	for _, u := range []string{c.AccessURL, c.ActivityURL, c.AlertWebhookURL} {
		if u == "" {
			continue
		}
		parsed, err := url.Parse(u)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%w: invalid url %q", domain.ErrInvalidConfig, u)
		}
	}

	// Trailing slashes double up when joined with endpoint paths.
	c.AccessURL = strings.TrimRight(c.AccessURL, "/")
	c.ActivityURL = strings.TrimRight(c.ActivityURL, "/")

	if c.AdminEmail != "" {
		if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
			return fmt.Errorf("%w: invalid admin-email %q", domain.ErrInvalidConfig, c.AdminEmail)
		}
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return fmt.Errorf("%w: smtp-from is required when smtp-host is set", domain.ErrInvalidConfig)
	}

	return nil
}

// SplitNames parses a comma-separated name list, trimming whitespace
// and dropping empty entries.
func SplitNames(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice if non-empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
