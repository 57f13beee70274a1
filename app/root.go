// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/logger"

	// custom routers
	_ "github.com/restcore/restcore/internal/api/v1/user"
)

var rootCmd = &cobra.Command{
	Use:   "restcore",
	Short: "restcore serves a REST API generated from model files",
	Long: `restcore loads the model definitions of the models directory, synchronises
their tables and serves CRUD routes for every model without a custom router.`,
	Args: cobra.OnlyValidArgs,
}

var (
	configPath string // Path to the configuration directory

	cfg config.Config
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration directory holding main.yaml (default ./etc/)")
}

// readConfig loads the configuration and initialises the logger.
func readConfig() error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err //nolint:wrapcheck
	}

	return logger.Init(cfg.Log) //nolint:wrapcheck
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
