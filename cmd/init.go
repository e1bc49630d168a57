package cmd

import (
	"github.com/spf13/cobra"

	"github.com/moku180/legalaichatbot/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize legalai configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose providers, models and data paths, and writes a .legalai.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
