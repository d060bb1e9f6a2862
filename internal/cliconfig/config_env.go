package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (GUARDIAN_*).
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("state-dir", os.Getenv("GUARDIAN_STATE_DIR"), &cfg.StateDir)
	s.setString("admin-email", os.Getenv("GUARDIAN_ADMIN_EMAIL"), &cfg.AdminEmail)
	s.setString("access-url", os.Getenv("GUARDIAN_ACCESS_URL"), &cfg.AccessURL)
	s.setString("access-token", os.Getenv("GUARDIAN_ACCESS_TOKEN"), &cfg.AccessToken)
	s.setString("activity-url", os.Getenv("GUARDIAN_ACTIVITY_URL"), &cfg.ActivityURL)
	s.setString("activity-api-key", os.Getenv("GUARDIAN_ACTIVITY_API_KEY"), &cfg.ActivityAPIKey)
	s.setString("smtp-host", os.Getenv("GUARDIAN_SMTP_HOST"), &cfg.SMTPHost)
	s.setString("smtp-username", os.Getenv("GUARDIAN_SMTP_USERNAME"), &cfg.SMTPUsername)
	s.setString("smtp-password", os.Getenv("GUARDIAN_SMTP_PASSWORD"), &cfg.SMTPPassword)
	s.setString("smtp-from", os.Getenv("GUARDIAN_SMTP_FROM"), &cfg.SMTPFrom)
	s.setString("alert-webhook-url", os.Getenv("GUARDIAN_ALERT_WEBHOOK_URL"), &cfg.AlertWebhookURL)
	s.setString("log-level", os.Getenv("GUARDIAN_LOG_LEVEL"), &cfg.LogLevel)

	s.setStrings("vip-names", SplitNames(os.Getenv("GUARDIAN_VIP_NAMES")), &cfg.VIPNames)

	if err := s.setIntFromString("keep-backups", os.Getenv("GUARDIAN_KEEP_BACKUPS"), &cfg.KeepBackups); err != nil {
		return err
	}
	if err := s.setIntFromString("warn-days", os.Getenv("GUARDIAN_WARN_DAYS"), &cfg.WarnDays); err != nil {
		return err
	}
	if err := s.setIntFromString("kick-days", os.Getenv("GUARDIAN_KICK_DAYS"), &cfg.KickDays); err != nil {
		return err
	}
	if err := s.setIntFromString("smtp-port", os.Getenv("GUARDIAN_SMTP_PORT"), &cfg.SMTPPort); err != nil {
		return err
	}
	if err := s.setIntFromString("health-port", os.Getenv("GUARDIAN_HEALTH_PORT"), &cfg.HealthPort); err != nil {
		return err
	}

	if err := s.setDuration("new-user-interval", os.Getenv("GUARDIAN_NEW_USER_INTERVAL"), &cfg.NewUserInterval); err != nil {
		return err
	}
	if err := s.setDuration("inactivity-interval", os.Getenv("GUARDIAN_INACTIVITY_INTERVAL"), &cfg.InactivityInterval); err != nil {
		return err
	}
	if err := s.setDuration("notify-interval", os.Getenv("GUARDIAN_NOTIFY_INTERVAL"), &cfg.NotifyInterval); err != nil {
		return err
	}

	s.setBoolFromString("dry-run", os.Getenv("GUARDIAN_DRY_RUN"), &cfg.DryRun)

	return nil
}
