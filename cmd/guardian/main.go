package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/guardian/internal/app"
	"github.com/bft-labs/guardian/internal/cliconfig"
)

const helpDescription = `
Guardian watches a shared media server and manages account lifecycles:
it welcomes new users, warns the inactive ones, and removes accounts
that stay idle past the configured threshold.

Highlights:
  - Crash-safe state with rotating backups; restarts never re-mail anyone.
  - Dry run is the default: nothing is removed until you pass --dry-run=false.
  - Configure via file ($HOME/.guardian/config.toml), GUARDIAN_* env, or flags.
  - Health and metrics endpoints for monitoring, watchdog exit on stalled scans.
`

var exampleUsage = strings.TrimSpace(`
  guardian --access-url http://plex.local:32400 --activity-url http://tautulli.local:8181
  guardian --config /etc/guardian/config.toml --dry-run=false
  guardian state list warned
  guardian state reset 123456
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// resolveConfig applies file and env configuration under flag
// precedence: flags beat env, env beats file, file beats defaults.
func resolveConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) (string, error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return "", err
		}
	} else {
		cfgFile = ""
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return "", err
	}
	return cfgFile, nil
}

func main() {
	// Best-effort .env loading for development setups.
	_ = godotenv.Load()

	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var vipNames string

	root := &cobra.Command{
		Use:     "guardian",
		Short:   "Account lifecycle daemon for shared media servers",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("vip-names") {
				cfg.VIPNames = cliconfig.SplitNames(vipNames)
			}

			cfgFile, err := resolveConfig(cmd, &cfg, cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := app.NewLogger(cfg.LogLevel)

			// Log configuration (masking secrets)
			logCfg := cfg
			if logCfg.AccessToken != "" {
				logCfg.AccessToken = "*****"
			}
			if logCfg.ActivityAPIKey != "" {
				logCfg.ActivityAPIKey = "*****"
			}
			if logCfg.SMTPPassword != "" {
				logCfg.SMTPPassword = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			deps, err := app.BuildDeps(cfg, log)
			if err != nil {
				return fmt.Errorf("build providers: %w", err)
			}

			g := app.New(cfg, deps, log)
			if cfgFile != "" {
				g.SetConfigWatchPath(cfgFile)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return g.Run(ctx)
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.guardian/config.toml)")
	root.PersistentFlags().StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for state.json and backups")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	root.Flags().IntVar(&cfg.WarnDays, "warn-days", cfg.WarnDays, "idle days before a warning is sent")
	root.Flags().IntVar(&cfg.KickDays, "kick-days", cfg.KickDays, "idle days before removal")
	root.Flags().DurationVar(&cfg.NewUserInterval, "new-user-interval", cfg.NewUserInterval, "interval between membership scans")
	root.Flags().DurationVar(&cfg.InactivityInterval, "inactivity-interval", cfg.InactivityInterval, "interval between inactivity scans")
	root.Flags().DurationVar(&cfg.NotifyInterval, "notify-interval", cfg.NotifyInterval, "interval between notification queue drains")
	root.Flags().BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "log removals instead of performing them")
	root.Flags().StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "admin address for notification copies (always VIP)")
	root.Flags().StringVar(&vipNames, "vip-names", "", "comma-separated usernames exempt from removal")
	root.Flags().IntVar(&cfg.KeepBackups, "keep-backups", cfg.KeepBackups, "number of rotating state backups to keep")

	root.Flags().StringVar(&cfg.AccessURL, "access-url", cfg.AccessURL, "media server API base URL")
	root.Flags().StringVar(&cfg.AccessToken, "access-token", cfg.AccessToken, "media server API token")
	root.Flags().StringVar(&cfg.ActivityURL, "activity-url", cfg.ActivityURL, "activity tracker API base URL")
	root.Flags().StringVar(&cfg.ActivityAPIKey, "activity-api-key", cfg.ActivityAPIKey, "activity tracker API key")

	root.Flags().StringVar(&cfg.SMTPHost, "smtp-host", cfg.SMTPHost, "SMTP relay host (empty logs notifications instead)")
	root.Flags().IntVar(&cfg.SMTPPort, "smtp-port", cfg.SMTPPort, "SMTP relay port")
	root.Flags().StringVar(&cfg.SMTPUsername, "smtp-username", cfg.SMTPUsername, "SMTP username")
	root.Flags().StringVar(&cfg.SMTPPassword, "smtp-password", cfg.SMTPPassword, "SMTP password")
	root.Flags().StringVar(&cfg.SMTPFrom, "smtp-from", cfg.SMTPFrom, "From address for notifications")
	root.Flags().StringVar(&cfg.AlertWebhookURL, "alert-webhook-url", cfg.AlertWebhookURL, "chat webhook for operational alerts")

	root.Flags().IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "HTTP port for /health and /metrics")

	root.AddCommand(newStateCmd(&cfg, &cfgPath))

	if err := root.Execute(); err != nil {
		logger := app.NewLogger(cfg.LogLevel)
		logger.Error().Err(err).Msg("guardian")
		os.Exit(1)
	}
}
