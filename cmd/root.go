package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "legalai",
	Short: "Multi-tenant legal research assistant with retrieval-augmented answers",
	Long: `LegalAI answers legal questions by combining an organization's own
document library with large-language-model analysis. Documents are chunked
along their legal structure, embedded and indexed per tenant; queries run
through safety screening, intent classification, diverse retrieval, a
domain specialist and citation verification before an answer is returned.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".legalai.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
