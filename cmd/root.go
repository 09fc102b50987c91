// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// envPrefix namespaces environment overrides, e.g. MIMIC_SESSION_PROFILE.
const envPrefix = "MIMIC"

// flagBindings maps persistent flags onto configuration keys. A flag only
// overrides the file and environment when it is set explicitly.
var flagBindings = map[string]string{
	"profile":        "session.profile",
	"seed":           "session.seed",
	"fatigue-offset": "session.fatigue_offset",
	"sink":           "sink.kind",
	"speed":          "sink.speed",
	"trace":          "sink.trace_file",
	"width":          "sink.screen_width",
	"height":         "sink.screen_height",
	"headless":       "browser.headless",
	"url":            "browser.url",
	"log-level":      "logger.level",
}

// NewRootCommand builds a fresh command tree. Each call is independent, so
// tests never share flag state.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "mimic",
		Short:         "mimic synthesizes human-plausible pointer and keyboard input.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "mimic"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Configuration loaded.",
				zap.String("version", Version),
				zap.String("config_file", v.ConfigFileUsed()),
				zap.String("profile", cfg.Session().Profile),
				zap.String("sink", cfg.Sink().Kind))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml, then ~/.mimic/config.yaml)")
	pf.String("profile", "", "behavior profile (careful, normal, fast, erratic, gaming or a custom one)")
	pf.Int64("seed", 0, "random seed for a reproducible session (0 picks one)")
	pf.Duration("fatigue-offset", 0, "start the session as if it had already been running this long")
	pf.String("sink", "", "where actions go: record or cdp")
	pf.Float64("speed", 0, "playback speed for live sinks (2 plays twice as fast)")
	pf.String("trace", "", "write every sink call to this JSONL file")
	pf.Int("width", 0, "virtual screen width for the record sink")
	pf.Int("height", 0, "virtual screen height for the record sink")
	pf.Bool("headless", true, "run the cdp sink's browser headless")
	pf.String("url", "", "page the cdp sink opens")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.Bool("json", false, "print results as JSON")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newMoveCmd(),
		newClickCmd(),
		newDragCmd(),
		newScrollCmd(),
		newHoverCmd(),
		newTypeCmd(),
		newSimulateCmd(),
		newProfilesCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command tree under ctx, which main wires to SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger := observability.GetLogger()
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled.")
		} else {
			logger.Error("Command execution failed", zap.Error(err))
		}
		return err
	}
	return nil
}

// initializeConfig reads the config file and environment into v and binds
// the explicitly set flags on top.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		expanded, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to expand config path: %w", err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mimic"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	for name, key := range flagBindings {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// getConfigFromContext returns the configuration stored by PersistentPreRunE.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration missing from command context")
	}
	return cfg, nil
}
