package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/migrate"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/seed"
	"github.com/movierate/movierate/internal/ui"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the remote store with sample reviews",
	Long: `Create sample reviews in the remote store for demos and development.

With no flags, the built-in sample set is used. With --file, reviews come
from a YAML file:

  reviews:
    - movieTitle: "Blade Runner"
      rating: 4.5
      reviewText: "Atmosphere over everything."
      userId: "user1"
      userFullName: "John Smith"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var reviews []*model.Review
		if file != "" {
			reviews, err = seed.FromYAML(file)
			if err != nil {
				return err
			}
		} else {
			reviews = seed.SampleReviews()
		}

		result, err := seed.Run(cmd.Context(), a.docs, reviews)
		if err != nil {
			return err
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s %s\n", ui.Error("Warning:"), msg)
		}
		fmt.Printf("%s seeded %d review(s)", ui.Success("✓"), result.Created)
		if result.Skipped > 0 {
			fmt.Printf(", skipped %d", result.Skipped)
		}
		fmt.Println()

		// Pull the seeds into the cache so the feed shows them right away.
		if err := a.reviews.RefreshAll(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "%s refresh after seeding failed: %v\n", ui.Error("Warning:"), err)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export cached reviews to a JSONL file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := migrate.Export(cmd.Context(), a.store, migrate.ExportOptions{
			ToJSONL: args[0],
			UserID:  userID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s exported %d review(s) to %s\n", ui.Success("✓"), result.ReviewsWritten, args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import reviews from a JSONL file into the remote store",
	Long: `Import reviews from a JSONL file, preserving their document ids.
Invalid records are skipped and reported. After the import the cache is
refreshed so the feed reflects the new data.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		backup, _ := cmd.Flags().GetBool("backup")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := migrate.Import(cmd.Context(), a.docs, migrate.ImportOptions{
			FromJSONL: args[0],
			DryRun:    dryRun,
			Backup:    backup,
		})
		if err != nil {
			return err
		}

		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s %s\n", ui.Error("Warning:"), msg)
		}
		if result.BackupCreated != "" {
			fmt.Printf("Backup: %s\n", result.BackupCreated)
		}
		verb := "imported"
		if dryRun {
			verb = "would import"
		}
		fmt.Printf("%s %s %d review(s), skipped %d\n", ui.Success("✓"), verb, result.ReviewsImported, result.Skipped)

		if !dryRun {
			if err := a.reviews.RefreshAll(cmd.Context()); err != nil {
				fmt.Fprintf(os.Stderr, "%s refresh after import failed: %v\n", ui.Error("Warning:"), err)
			}
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "YAML file with seed reviews")

	exportCmd.Flags().StringP("user", "u", "", "Export only this author's reviews")

	importCmd.Flags().Bool("dry-run", false, "Parse and validate without writing")
	importCmd.Flags().Bool("backup", false, "Back up the input file first")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
