package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/moku180/legalaichatbot/internal/ingest"
	"github.com/moku180/legalaichatbot/internal/progress"
)

var (
	ingestOrg     string
	ingestUser    string
	ingestPattern string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest a directory of documents into an organization's library",
	Long: `Walks the directory for files matching the glob pattern, creates a
document record for each and runs the full ingestion sequence: extraction,
chunking, embedding and indexing. Processing is sequential so provider rate
limits are respected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestOrg == "" {
			return fmt.Errorf("--org is required")
		}

		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		matches, err := doublestar.Glob(os.DirFS(root), ingestPattern)
		if err != nil {
			return fmt.Errorf("expanding pattern %q: %w", ingestPattern, err)
		}
		if len(matches) == 0 {
			fmt.Printf("No files matching %q under %s\n", ingestPattern, root)
			return nil
		}

		comps, err := buildComponents(cmd.Context())
		if err != nil {
			return err
		}
		defer comps.Close()

		reporter := progress.NewReporter()
		reporter.Start(len(matches))

		ctx := cmd.Context()
		failed := 0
		for i, rel := range matches {
			path := filepath.Join(root, rel)
			reporter.Update(i+1, rel)
			if err := ingestFile(ctx, comps, path); err != nil {
				failed++
				if verbose {
					fmt.Fprintf(os.Stderr, "\n%s: %v\n", rel, err)
				}
			}
		}
		reporter.Finish()

		fmt.Printf("Ingested %d documents (%d failed) for organization %s\n", len(matches)-failed, failed, ingestOrg)
		return nil
	},
}

func ingestFile(ctx context.Context, comps *components, path string) error {
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := comps.documents.Create(ctx, ingest.Document{
		OrganizationID: ingestOrg,
		UploadedBy:     ingestUser,
		Title:          title,
		Filename:       filepath.Base(path),
		FilePath:       path,
	})
	if err != nil {
		return err
	}
	return comps.processor.Process(ctx, doc)
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOrg, "org", "", "organization ID to ingest into (required)")
	ingestCmd.Flags().StringVar(&ingestUser, "user", "cli", "user ID recorded as the uploader")
	ingestCmd.Flags().StringVar(&ingestPattern, "pattern", "**/*.{txt,md}", "glob pattern for files to ingest")
	rootCmd.AddCommand(ingestCmd)
}
