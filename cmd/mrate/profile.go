package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/ui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and edit user profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show [uid]",
	Short: "Show a profile, refreshing it from the remote store",
	Long: `Show a user profile. With no argument, shows the configured identity's
profile. If the profile does not exist remotely yet, a default one is
created from the configured identity.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		uid := ""
		if len(args) == 1 {
			uid = args[0]
		} else {
			uid, err = a.requireIdentity()
			if err != nil {
				return err
			}
		}

		p, err := a.profiles.RefreshProfile(cmd.Context(), uid)
		if err != nil {
			// Degrade to the cached copy when the remote is unreachable.
			cached, cacheErr := a.store.GetProfile(cmd.Context(), uid)
			if cacheErr != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s refresh failed, showing cached profile: %v\n",
				ui.Error("Warning:"), err)
			p = cached
		} else if err := a.reviews.RefreshForUser(cmd.Context(), uid); err != nil {
			fmt.Fprintf(os.Stderr, "%s review refresh failed: %v\n", ui.Error("Warning:"), err)
		}

		name := p.FullName
		if name == "" {
			name = ui.Muted("(no name set)")
		}
		fmt.Printf("%s %s\n", ui.Title("Profile:"), name)
		fmt.Printf("  uid:     %s\n", p.UID)
		if p.PhotoURL != "" {
			fmt.Printf("  photo:   %s\n", p.PhotoURL)
		}
		if p.UpdatedAt > 0 {
			fmt.Printf("  updated: %s\n", ui.RelativeTime(p.UpdatedAt))
		}
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update your profile name and picture",
	Long: `Update the configured identity's profile. The new name and picture are
fanned out to all of your reviews so the feed shows them immediately.

Examples:
  mrate profile set --name "Sarah Davis"
  mrate profile set --name "Sarah Davis" --picture ./me.jpg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		photoURL, _ := cmd.Flags().GetString("photo-url")
		picturePath, _ := cmd.Flags().GetString("picture")

		if name == "" {
			return fmt.Errorf("--name is required")
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		uid, err := a.requireIdentity()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if picturePath != "" {
			f, err := os.Open(picturePath)
			if err != nil {
				return fmt.Errorf("failed to open picture: %w", err)
			}
			url, upErr := a.profiles.UploadProfilePicture(ctx, uid, f)
			_ = f.Close()
			if upErr != nil {
				return upErr
			}
			photoURL = url
			fmt.Printf("%s picture uploaded\n", ui.Success("✓"))
		}

		var photoPtr *string
		if photoURL != "" {
			photoPtr = &photoURL
		}

		p, err := a.profiles.UpdateProfile(ctx, uid, name, photoPtr)
		if err != nil {
			return err
		}
		fmt.Printf("%s profile saved: %s\n", ui.Success("✓"), p.FullName)
		return nil
	},
}

func init() {
	profileSetCmd.Flags().String("name", "", "Full name")
	profileSetCmd.Flags().String("photo-url", "", "Profile picture URL")
	profileSetCmd.Flags().String("picture", "", "Path to a picture file to upload")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}
