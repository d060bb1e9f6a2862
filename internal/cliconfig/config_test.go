package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/guardian/internal/domain"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessURL = "http://plex.local:32400"
	cfg.ActivityURL = "http://tautulli.local:8181"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if !cfg.DryRun {
		t.Fatal("dry run must default to on")
	}
	if cfg.WarnDays != 27 || cfg.KickDays != 30 {
		t.Fatalf("unexpected default thresholds: warn=%d kick=%d", cfg.WarnDays, cfg.KickDays)
	}
}

func TestValidateRejectsWarnAtOrAboveKick(t *testing.T) {
	for _, warn := range []int{30, 31} {
		cfg := validConfig()
		cfg.WarnDays = warn
		err := cfg.Validate()
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Fatalf("warn-days=%d: expected ErrInvalidConfig, got %v", warn, err)
		}
	}
}

func TestValidateRejectsMissingProviderURLs(t *testing.T) {
	cfg := validConfig()
	cfg.AccessURL = ""
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for missing access-url, got %v", err)
	}

	cfg = validConfig()
	cfg.ActivityURL = "not a url"
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad activity-url, got %v", err)
	}
}

func TestValidateRejectsBadAdminEmail(t *testing.T) {
	cfg := validConfig()
	cfg.AdminEmail = "not-an-email"
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateTrimsTrailingSlash(t *testing.T) {
	cfg := validConfig()
	cfg.AccessURL = "http://plex.local:32400/"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.AccessURL != "http://plex.local:32400" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.AccessURL)
	}
}

func TestValidateRequiresSMTPFromWithHost(t *testing.T) {
	cfg := validConfig()
	cfg.SMTPHost = "mail.local"
	cfg.SMTPFrom = ""
	if err := cfg.Validate(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSplitNames(t *testing.T) {
	got := SplitNames(" alice, bob ,,charlie ")
	want := []string{"alice", "bob", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if SplitNames("") != nil {
		t.Fatal("empty input must return nil")
	}
}

func TestConfigSetterRespectsChangedFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarnDays = 10

	s := newConfigSetter(map[string]bool{"warn-days": true})
	s.setInt("warn-days", 20, &cfg.WarnDays)
	if cfg.WarnDays != 10 {
		t.Fatalf("changed flag was overwritten: %d", cfg.WarnDays)
	}

	s.setInt("kick-days", 40, &cfg.KickDays)
	if cfg.KickDays != 40 {
		t.Fatalf("unchanged flag was not applied: %d", cfg.KickDays)
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("GUARDIAN_WARN_DAYS", "14")
	t.Setenv("GUARDIAN_KICK_DAYS", "21")
	t.Setenv("GUARDIAN_DRY_RUN", "false")
	t.Setenv("GUARDIAN_VIP_NAMES", "alice,bob")
	t.Setenv("GUARDIAN_INACTIVITY_INTERVAL", "15m")
	t.Setenv("GUARDIAN_ACCESS_URL", "http://env.local")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("apply env: %v", err)
	}

	if cfg.WarnDays != 14 || cfg.KickDays != 21 {
		t.Fatalf("thresholds not applied: warn=%d kick=%d", cfg.WarnDays, cfg.KickDays)
	}
	if cfg.DryRun {
		t.Fatal("dry run not disabled from env")
	}
	if len(cfg.VIPNames) != 2 {
		t.Fatalf("vip names not applied: %v", cfg.VIPNames)
	}
	if cfg.InactivityInterval != 15*time.Minute {
		t.Fatalf("interval not applied: %v", cfg.InactivityInterval)
	}
	if cfg.AccessURL != "http://env.local" {
		t.Fatalf("access url not applied: %q", cfg.AccessURL)
	}
}

func TestApplyEnvConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("GUARDIAN_INACTIVITY_INTERVAL", "soon")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err == nil {
		t.Fatal("expected parse error for bad duration")
	}
}
