// Package cli implements the evolve command line.
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evolve/internal/config"
	"evolve/internal/logging"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.AppConfig
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Knowledge engine for consciousness and recovery teachings",
	Long: `evolve ingests documents into a vector store with taxonomy tags and
answers questions with retrieved context and a program-level persona.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default ./config.yaml or ~/.config/evolve/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if verbose {
		logCfg.Level = "debug"
	}
	l, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	logger = l
	return nil
}
