package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/config"
	"github.com/movierate/movierate/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir()
		if err != nil {
			return err
		}

		path, err := config.Init(dir)
		if err != nil {
			return err
		}
		fmt.Printf("%s wrote %s\n", ui.Success("✓"), path)
		fmt.Println(ui.Muted("Edit it to point at your remote store, then run 'mrate config set-token'."))
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Store the remote access token",
	Long: `Store the remote access token in the config file.

With --token the value is taken from the flag; otherwise it is read from
the terminal without echoing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")

		if token == "" {
			var err error
			token, err = config.PromptToken()
			if err != nil {
				return err
			}
		}

		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := config.SetToken(dir, token); err != nil {
			return err
		}
		fmt.Printf("%s token stored\n", ui.Success("✓"))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir()
		if err != nil {
			return err
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}

		token := ui.Muted("(not set)")
		if cfg.Remote.Token != "" {
			token = ui.Muted("(set)")
		}

		fmt.Printf("%s %s\n", ui.Title("Config:"), config.File(dir))
		fmt.Printf("  cache.path        %s\n", cfg.Cache.Path)
		fmt.Printf("  remote.base_url   %s\n", cfg.Remote.BaseURL)
		fmt.Printf("  remote.token      %s\n", token)
		fmt.Printf("  storage.bucket    %s\n", cfg.Storage.Bucket)
		fmt.Printf("  identity.uid      %s\n", cfg.Identity.UID)
		fmt.Printf("  daemon.refresh    %ds\n", cfg.Daemon.RefreshSeconds)
		return nil
	},
}

func init() {
	configSetTokenCmd.Flags().String("token", "", "Token value (omit to be prompted)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetTokenCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
