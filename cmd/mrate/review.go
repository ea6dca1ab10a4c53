package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/ui"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Create, edit, and delete your reviews",
}

var reviewAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Submit a new review",
	Long: `Submit a new review to the shared collection.

With no flags, an interactive form collects the fields. The review is
validated locally first; nothing reaches the remote store until it passes.

Examples:
  mrate review add                                  # Interactive form
  mrate review add --title "Heat" --rating 4.5 --text "De Niro and Pacino."
  mrate review add --title "Alien" --rating 5 --text "..." --image poster.jpg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		uid, err := a.requireIdentity()
		if err != nil {
			return err
		}

		title, _ := cmd.Flags().GetString("title")
		rating, _ := cmd.Flags().GetFloat64("rating")
		text, _ := cmd.Flags().GetString("text")
		genre, _ := cmd.Flags().GetString("genre")
		banner, _ := cmd.Flags().GetString("banner")
		imagePath, _ := cmd.Flags().GetString("image")

		// Fall back to the form when the required fields were not given.
		if title == "" || rating == 0 || text == "" {
			if err := reviewForm(&title, &rating, &text, &genre); err != nil {
				return err
			}
		}

		ctx := cmd.Context()

		if imagePath != "" {
			f, err := os.Open(imagePath)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			url, upErr := a.reviews.UploadReviewImage(ctx, uid, f)
			_ = f.Close()
			if upErr != nil {
				return upErr
			}
			banner = url
			fmt.Printf("%s image uploaded\n", ui.Success("✓"))
		}

		// Author fields are snapshotted from the cached profile when one
		// exists, falling back to the configured identity.
		fullName := a.cfg.Identity.FullName
		photoURL := a.cfg.Identity.PhotoURL
		if p, err := a.store.GetProfile(ctx, uid); err == nil {
			fullName = p.FullName
			photoURL = p.PhotoURL
		}

		r := &model.Review{
			MovieTitle:            title,
			MovieBannerURL:        banner,
			MovieGenre:            genre,
			Rating:                rating,
			ReviewText:            text,
			UserID:                uid,
			UserFullName:          fullName,
			UserProfilePictureURL: photoURL,
		}

		added, err := a.reviews.AddReview(ctx, r)
		if err != nil {
			return err
		}

		fmt.Printf("%s review %s created\n", ui.Success("✓"), added.ID)
		fmt.Println(ui.ReviewCard(added))
		return nil
	},
}

var reviewUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit the rating and text of a review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, _ := cmd.Flags().GetFloat64("rating")
		text, _ := cmd.Flags().GetString("text")
		banner, _ := cmd.Flags().GetString("banner")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var bannerPtr *string
		if cmd.Flags().Changed("banner") {
			bannerPtr = &banner
		}

		if err := a.reviews.UpdateReview(cmd.Context(), args[0], rating, text, bannerPtr); err != nil {
			return err
		}
		fmt.Printf("%s review %s updated\n", ui.Success("✓"), args[0])
		return nil
	},
}

var reviewDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.reviews.DeleteReview(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s review %s deleted\n", ui.Success("✓"), args[0])
		return nil
	},
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one cached review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.store.GetReview(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("review %s is not cached: %w", args[0], err)
		}
		fmt.Println(ui.ReviewCard(r))
		return nil
	},
}

// reviewForm collects review fields interactively.
func reviewForm(title *string, rating *float64, text, genre *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Movie title").
				Value(title).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewSelect[float64]().
				Title("Rating").
				Options(
					huh.NewOption("★★★★★  5.0", 5.0),
					huh.NewOption("★★★★⯨  4.5", 4.5),
					huh.NewOption("★★★★☆  4.0", 4.0),
					huh.NewOption("★★★⯨☆  3.5", 3.5),
					huh.NewOption("★★★☆☆  3.0", 3.0),
					huh.NewOption("★★⯨☆☆  2.5", 2.5),
					huh.NewOption("★★☆☆☆  2.0", 2.0),
					huh.NewOption("★⯨☆☆☆  1.5", 1.5),
					huh.NewOption("★☆☆☆☆  1.0", 1.0),
					huh.NewOption("⯨☆☆☆☆  0.5", 0.5),
				).
				Value(rating),
			huh.NewText().
				Title("Your review").
				Value(text).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("review text is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Genre (optional)").
				Value(genre),
		),
	)
	return form.Run()
}

func init() {
	reviewAddCmd.Flags().String("title", "", "Movie title")
	reviewAddCmd.Flags().Float64("rating", 0, "Rating in 0.5 steps, up to 5")
	reviewAddCmd.Flags().String("text", "", "Review text")
	reviewAddCmd.Flags().String("genre", "", "Movie genre")
	reviewAddCmd.Flags().String("banner", "", "Movie banner URL")
	reviewAddCmd.Flags().String("image", "", "Path to a review image to upload")

	reviewUpdateCmd.Flags().Float64("rating", 0, "New rating in 0.5 steps")
	reviewUpdateCmd.Flags().String("text", "", "New review text")
	reviewUpdateCmd.Flags().String("banner", "", "New banner URL")

	reviewCmd.AddCommand(reviewAddCmd)
	reviewCmd.AddCommand(reviewUpdateCmd)
	reviewCmd.AddCommand(reviewDeleteCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	rootCmd.AddCommand(reviewCmd)
}
