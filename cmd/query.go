package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	queryOrg  string
	queryUser string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run a legal question through the full pipeline from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if queryOrg == "" {
			return fmt.Errorf("--org is required")
		}
		question := strings.Join(args, " ")

		comps, err := buildComponents(cmd.Context())
		if err != nil {
			return err
		}
		defer comps.Close()

		resp, err := comps.pipeline.Run(cmd.Context(), queryOrg, queryUser, question)
		if err != nil {
			return err
		}

		fmt.Println(resp.Answer)
		if resp.Refused {
			if resp.SuggestedAction != "" {
				fmt.Printf("\nSuggested action: %s\n", resp.SuggestedAction)
			}
			return nil
		}

		fmt.Printf("\nIntent: %s  Confidence: %.2f\n", resp.Intent, resp.Confidence)
		if len(resp.Citations) > 0 {
			fmt.Println("\nSources:")
			for i, c := range resp.Citations {
				fmt.Printf("  %d. %s", i+1, c.Title)
				if c.Section != "" {
					fmt.Printf(" (%s)", c.Section)
				}
				fmt.Println()
			}
		}
		if verbose {
			fmt.Printf("\nTokens: %d in / %d out  Cost: $%.4f  Latency: %dms\n",
				resp.InputTokens, resp.OutputTokens, resp.Cost, resp.LatencyMS)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryOrg, "org", "", "organization ID to query against (required)")
	queryCmd.Flags().StringVar(&queryUser, "user", "cli", "user ID recorded on the query")
	rootCmd.AddCommand(queryCmd)
}
