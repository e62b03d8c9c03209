// Package commands wires the dayview CLI.
package commands

import (
	"context"
	"path/filepath"
	"time"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dayview/internal/config"
	appLog "dayview/internal/log"
	"dayview/internal/model"
	"dayview/internal/source"
)

// DefaultConfigPath is used when neither --config nor DAYVIEW_CONFIG is set.
const DefaultConfigPath = "~/.config/dayview/config.yaml"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dayview",
		Short: base.Wrap80("Lay out a day of calendar events as non-overlapping blocks."),
		Long: base.Wrap80("dayview loads events from ICS feeds and local files and lays out " +
			"one day as columns of blocks: overlapping events sit side by side and every " +
			"block widens into free space on its right."),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("config", DefaultConfigPath, "Path to config file (env DAYVIEW_CONFIG).")
	cmd.PersistentFlags().String("log-level", "", "One of debug, info, warn, error; overrides the config file.")
	_ = viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("DAYVIEW")
	_ = viper.BindEnv("config")
	_ = viper.BindEnv("log_level")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addLayout(topLevel)
	addRender(topLevel)
	addServe(topLevel)
	addCapture(topLevel)
	addView(topLevel)
	addVersion(topLevel)
}

// loadConfig reads the config file named by --config / DAYVIEW_CONFIG and
// applies the effective log level.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := viper.GetString("log_level")
	if level == "" {
		level = cfg.LogLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))
	appLog.Debug("config loaded", "path", path, "sources", len(cfg.Sources), "window", cfg.Window.String())
	return cfg, nil
}

// dayLoader returns the events of one day from every configured source.
// Failing sources are logged; the rest still contribute.
func dayLoader(cfg *config.Config) func(ctx context.Context, day time.Time) ([]model.Event, error) {
	loader := source.NewLoader(filepath.Join(cfg.ResolvedCacheDir(), "ics"))
	srcs := source.FromConfig(cfg.Sources)
	return func(ctx context.Context, day time.Time) ([]model.Event, error) {
		events, errs := loader.LoadAll(ctx, srcs)
		if len(errs) > 0 && len(errs) == len(srcs) {
			return nil, source.JoinErrors(errs)
		}
		return source.OnDay(events, day), nil
	}
}
