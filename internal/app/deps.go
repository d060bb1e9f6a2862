package app

import (
	"github.com/rs/zerolog"

	"github.com/bft-labs/guardian/internal/cliconfig"
	"github.com/bft-labs/guardian/internal/providers"
)

// BuildDeps constructs the real providers from validated configuration.
// With no SMTP host configured, notifications go to the log instead.
func BuildDeps(cfg cliconfig.Config, logger zerolog.Logger) (Deps, error) {
	access, err := providers.NewRESTAccessProvider(cfg.AccessURL, cfg.AccessToken, logger)
	if err != nil {
		return Deps{}, err
	}
	activity, err := providers.NewRESTActivityProvider(cfg.ActivityURL, cfg.ActivityAPIKey, logger)
	if err != nil {
		return Deps{}, err
	}

	d := Deps{
		Access:   access,
		Activity: activity,
		Alerts:   providers.NewWebhookAlert(cfg.AlertWebhookURL, logger),
	}
	if cfg.SMTPHost != "" {
		d.Notifier = providers.NewSMTPNotifier(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, logger)
	} else {
		d.Notifier = providers.NewLogNotifier(logger)
	}
	return d, nil
}
