// Command mrate is the MovieRate CLI: a local-first client for the shared
// movie review collection. Reads are served from a local SQLite cache that
// is refreshed from the remote store; writes go remote first and the cache
// follows.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/blob"
	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/config"
	"github.com/movierate/movierate/internal/remote"
	"github.com/movierate/movierate/internal/sync"
	"github.com/movierate/movierate/internal/ui"
)

var (
	flagConfigDir string
	flagNoColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "mrate",
	Short: "Local-first client for the shared movie review feed",
	Long: `mrate keeps a local cache of the shared movie review collection and
syncs it with the remote store.

Reads come from the cache, so the feed works offline and stays fast.
Writes are confirmed remotely before the cache is updated, so nothing
local ever contradicts the remote store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			ui.Plain()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "Config directory (default: OS config dir)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("Error:"), err)
		os.Exit(1)
	}
}

// app holds the wired-up engines for one command invocation.
type app struct {
	cfg      *config.Config
	store    *cache.Store
	docs     remote.DocStore
	blobs    blob.Uploader
	reviews  sync.ReviewSyncer
	profiles sync.ProfileSyncer
	logger   *log.Logger
}

// configDir resolves the configuration directory from the flag or the OS
// default.
func configDir() (string, error) {
	if flagConfigDir != "" {
		return flagConfigDir, nil
	}
	return config.Dir()
}

// newApp loads the configuration and wires the cache, the remote client,
// and the sync engines. The caller must Close it.
func newApp(cmd *cobra.Command) (*app, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	docs, err := remote.NewClient(remote.ClientConfig{
		BaseURL: cfg.Remote.BaseURL,
		Token:   cfg.Remote.Token,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	// Object storage is optional; image upload commands report the gap.
	var blobs blob.Uploader
	if cfg.Storage.Bucket != "" {
		s3, err := blob.NewS3Uploader(cmd.Context(), blob.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to configure object storage: %w", err)
		}
		blobs = s3
	}

	logger := log.New(os.Stderr, "[mrate] ", log.LstdFlags)
	identity := sync.Identity{
		UID:      cfg.Identity.UID,
		FullName: cfg.Identity.FullName,
		PhotoURL: cfg.Identity.PhotoURL,
	}

	reviews := sync.NewReviewSyncer(store, docs, blobs, logger)
	profiles := sync.NewProfileSyncer(store, docs, blobs, reviews, identity, logger)

	return &app{
		cfg:      cfg,
		store:    store,
		docs:     docs,
		blobs:    blobs,
		reviews:  reviews,
		profiles: profiles,
		logger:   logger,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// requireIdentity returns the configured account uid or an error telling
// the user how to set it.
func (a *app) requireIdentity() (string, error) {
	if a.cfg.Identity.UID == "" {
		return "", fmt.Errorf("no identity configured; set identity.uid in mrate.toml or MRATE_IDENTITY_UID")
	}
	return a.cfg.Identity.UID, nil
}
