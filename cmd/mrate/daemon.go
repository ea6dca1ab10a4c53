package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/movierate/movierate/internal/config"
	"github.com/movierate/movierate/internal/daemon"
	"github.com/movierate/movierate/internal/dashboard"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Keep the cache warm in the background (foreground process)",
	Long: `Run the background daemon in the foreground.

The daemon:
  1. Refreshes the feed from the remote store on an interval
  2. Watches a drop directory and submits review JSON files dropped there
  3. Optionally serves a WebSocket dashboard that broadcasts feed changes

Logs go to stderr and to a rotated log file (daemon.log_file in the config).

Examples:
  mrate daemon
  mrate daemon --drop-dir ~/reviews-inbox
  mrate daemon --dashboard --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		dropDir, _ := cmd.Flags().GetString("drop-dir")
		withDashboard, _ := cmd.Flags().GetBool("dashboard")
		port, _ := cmd.Flags().GetInt("port")

		if dropDir == "" {
			dropDir = a.cfg.Daemon.DropDir
		}
		if dropDir != "" {
			if err := os.MkdirAll(dropDir, 0755); err != nil {
				return fmt.Errorf("failed to create drop directory: %w", err)
			}
		}
		if !cmd.Flags().Changed("port") {
			port = a.cfg.Daemon.DashboardPort
		}

		logFile := config.LogWriter(a.cfg.Daemon.LogFile)
		defer logFile.Close()
		logger := log.New(io.MultiWriter(os.Stderr, logFile), "[daemon] ", log.LstdFlags)

		daemonCfg := &daemon.Config{
			RefreshInterval:  time.Duration(a.cfg.Daemon.RefreshSeconds) * time.Second,
			DebounceInterval: 100 * time.Millisecond,
			Logger:           logger,
		}

		if withDashboard {
			server := dashboard.NewServer(&dashboard.Config{Port: port, Logger: logger})
			if err := server.Start(); err != nil {
				return err
			}
			feed := dashboard.NewFeed(server, a.store, logger)
			defer func() {
				feed.Stop()
				_ = server.Stop()
			}()

			daemonCfg.OnRefresh = func(duration time.Duration) {
				n, err := a.store.CountReviews(cmd.Context())
				if err != nil {
					n = 0
				}
				feed.OnRefreshComplete(n, duration)
			}
			fmt.Printf("Dashboard: ws://localhost:%d/ws\n", port)
		}

		d, err := daemon.New(a.reviews, dropDir, daemonCfg)
		if err != nil {
			return err
		}

		fmt.Printf("Daemon started (refresh every %ds)\n", a.cfg.Daemon.RefreshSeconds)
		if dropDir != "" {
			fmt.Printf("Drop directory: %s\n", dropDir)
		}
		fmt.Println("Press Ctrl+C to stop")

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return d.Start(ctx)
	},
}

func init() {
	daemonCmd.Flags().String("drop-dir", "", "Directory to watch for review JSON files")
	daemonCmd.Flags().Bool("dashboard", false, "Serve the WebSocket dashboard")
	daemonCmd.Flags().IntP("port", "p", 8080, "Dashboard port")

	rootCmd.AddCommand(daemonCmd)
}
