package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mind-engage/motorskill/internal/config"
	"github.com/mind-engage/motorskill/internal/logging"
)

const version = "0.3.0"

var (
	v          = viper.New()
	configFile string
	envFiles   []string

	cfg    config.Config
	logger *zap.Logger
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "motorskill",
		Short: "Motor-skill assessment records and normative reports",
		Long: `motorskill stores TGMD-3 style assessments and reports each child's
scores against peers of the same sex and age band.

Configuration is read from an optional config file, MOTORSKILL_* environment
variables (a .env file is loaded first) and flags, in increasing priority.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFiles...); err != nil {
				return err
			}
			var err error
			cfg, err = config.Load(v, configFile)
			if err != nil {
				return err
			}
			logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	pf.StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	pf.String("db-driver", "sqlite", "database driver: sqlite, postgres or memory")
	pf.String("db-dsn", "", "database DSN")
	pf.String("protocol-file", "", "protocol YAML (default: built-in TGMD-3)")
	pf.String("log-level", "info", "log level")
	pf.String("log-format", "console", "log format: json or console")
	pf.String("band-scheme", "five-band", "band scheme for z-score labels")
	pf.Bool("exclude-self", false, "exclude the target evaluation from its own peer group")
	for key, flag := range map[string]string{
		"db_driver":     "db-driver",
		"db_dsn":        "db-dsn",
		"protocol_file": "protocol-file",
		"log_level":     "log-level",
		"log_format":    "log-format",
		"band_scheme":   "band-scheme",
		"exclude_self":  "exclude-self",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newServeCommand(),
		newImportCommand(),
		newExportCommand(),
		newReportCommand(),
		newProtocolCommand(),
		newUserCommand(),
		newResetCommand(),
	)
	return root
}
