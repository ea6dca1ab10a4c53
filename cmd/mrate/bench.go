package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/loadtest"
	"github.com/movierate/movierate/internal/ui"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark feed queries against a throwaway cache",
	Long: `Populate a temporary cache and measure feed query latency under
concurrent readers. The configured cache is never touched.

Examples:
  mrate bench
  mrate bench --reviews 10000 --readers 50 --queries 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		numReviews, _ := cmd.Flags().GetInt("reviews")
		numReaders, _ := cmd.Flags().GetInt("readers")
		queries, _ := cmd.Flags().GetInt("queries")
		numUsers, _ := cmd.Flags().GetInt("users")

		tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("mrate-bench-%d.db", time.Now().UnixNano()))
		defer os.Remove(tmpPath)

		fmt.Printf("Populating %d reviews across %d users...\n", numReviews, numUsers)
		start := time.Now()
		tc, err := loadtest.CreateTestCache(tmpPath, numReviews, numUsers)
		if err != nil {
			return err
		}
		defer tc.Close()
		fmt.Printf("%s populated in %v\n\n", ui.Success("✓"), time.Since(start).Round(time.Millisecond))

		fmt.Printf("Running %d readers x %d queries...\n", numReaders, queries)
		stats, err := tc.RunConcurrentQueries(numReaders, queries)
		if err != nil {
			return err
		}
		stats.PrintStats()

		fmt.Println("\nVerifying consistency under concurrent writes...")
		if err := tc.VerifyConcurrentReadsAndWrites(numReaders, 2*time.Second); err != nil {
			return err
		}
		fmt.Printf("%s no inconsistent snapshots observed\n", ui.Success("✓"))
		return nil
	},
}

func init() {
	benchCmd.Flags().Int("reviews", 5000, "Number of reviews to populate")
	benchCmd.Flags().Int("users", 50, "Number of distinct authors")
	benchCmd.Flags().Int("readers", 20, "Concurrent readers")
	benchCmd.Flags().Int("queries", 20, "Queries per reader")

	rootCmd.AddCommand(benchCmd)
}
