package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/ui"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the review feed, newest first",
	Long: `Show the cached review feed, refreshed from the remote store first.

If the refresh fails, the last cached feed is shown with a warning; the
feed never goes dark because the remote store is unreachable.

Examples:
  mrate feed                       # Refresh, then show everything
  mrate feed --user user2          # One author's reviews
  mrate feed --since "last week"   # Only recent reviews
  mrate feed --watch               # Keep printing as the cache changes
  mrate feed --local               # Skip the refresh entirely`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		since, _ := cmd.Flags().GetString("since")
		watch, _ := cmd.Flags().GetBool("watch")
		local, _ := cmd.Flags().GetBool("local")

		var cutoff int64
		if since != "" {
			t, err := parseSince(since)
			if err != nil {
				return err
			}
			cutoff = t.UnixMilli()
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()

		if !local {
			var refreshErr error
			if userID != "" {
				refreshErr = a.reviews.RefreshForUser(ctx, userID)
			} else {
				refreshErr = a.reviews.RefreshAll(ctx)
			}
			if refreshErr != nil {
				fmt.Fprintf(os.Stderr, "%s refresh failed, showing cached feed: %v\n",
					ui.Error("Warning:"), refreshErr)
			}
		}

		if watch {
			return watchFeed(ctx, a, userID, cutoff)
		}

		reviews, err := queryFeed(ctx, a, userID)
		if err != nil {
			return err
		}
		printFeed(reviews, cutoff)
		return nil
	},
}

func queryFeed(ctx context.Context, a *app, userID string) ([]*model.Review, error) {
	if userID != "" {
		return a.store.ReviewsByUser(ctx, userID)
	}
	return a.store.AllReviews(ctx)
}

func printFeed(reviews []*model.Review, cutoff int64) {
	shown := 0
	for _, r := range reviews {
		if cutoff > 0 && r.Timestamp < cutoff {
			continue
		}
		fmt.Println(ui.ReviewCard(r))
		shown++
	}
	if shown == 0 {
		fmt.Println(ui.Muted("No reviews to show."))
	} else {
		fmt.Println(ui.Muted(fmt.Sprintf("%d review(s)", shown)))
	}
}

// watchFeed re-renders the feed every time the cache changes, until
// interrupted.
func watchFeed(ctx context.Context, a *app, userID string, cutoff int64) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var live *cache.Live[[]*model.Review]
	if userID != "" {
		live = cache.LiveReviewsByUser(a.store, userID)
	} else {
		live = cache.LiveAllReviews(a.store)
	}
	defer live.Stop()

	fmt.Println(ui.Muted("Watching the feed; Ctrl+C to stop."))
	for {
		select {
		case <-ctx.Done():
			return nil
		case reviews, ok := <-live.Updates():
			if !ok {
				return nil
			}
			fmt.Printf("\n%s %s\n\n", ui.Title("Feed"), ui.Muted(time.Now().Format("15:04:05")))
			printFeed(reviews, cutoff)
		}
	}
}

// parseSince turns a natural-language time expression into a cutoff.
func parseSince(expr string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(expr, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse --since %q: %w", expr, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand --since %q (try \"yesterday\" or \"last week\")", expr)
	}
	return r.Time, nil
}

func init() {
	feedCmd.Flags().StringP("user", "u", "", "Show only this author's reviews")
	feedCmd.Flags().String("since", "", "Only reviews after this time (natural language)")
	feedCmd.Flags().BoolP("watch", "w", false, "Keep watching the cache for changes")
	feedCmd.Flags().Bool("local", false, "Serve from cache without refreshing")

	rootCmd.AddCommand(feedCmd)
}
