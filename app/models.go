package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/restcore/restcore/internal/daemon"
	"github.com/restcore/restcore/internal/db/models"
)

func init() { //nolint: gochecknoinits
	modelsCmd.Flags().BoolVar(&syncModels, "sync", false, "Synchronise the model tables")

	rootCmd.AddCommand(modelsCmd)
}

var (
	syncModels bool

	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List the model files, optionally synchronising their tables",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return readConfig()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := daemon.Models(&cfg, syncModels)
			if err != nil {
				return err //nolint:wrapcheck
			}

			return reg.Each(func(m *models.Model) error {
				_, errPrint := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.Name, m.Table, m.Key)

				return errPrint //nolint:wrapcheck
			})
		},
	}
)
