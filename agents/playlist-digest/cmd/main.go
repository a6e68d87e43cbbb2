package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	playlistdigest "playlist-digest/agents/playlist-digest"
	"playlist-digest/shared/config"
	"playlist-digest/shared/scheduler"

	"github.com/spf13/cobra"
)

func main() {
	log.SetOutput(os.Stdout)

	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Fatalf("%v", err)
		}
	}
}

func newRootCommand() *cobra.Command {
	var once bool
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "playlist-digest",
		Short:         "Summarize a YouTube playlist into a weekly GitHub issue",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Create context that responds to signals
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			agent := playlistdigest.NewDigestAgent(cfg)
			s := scheduler.New(cfg, agent)

			if once {
				fmt.Println("Running once...")
				if err := agent.Initialize(); err != nil {
					return fmt.Errorf("failed to initialize agent: %w", err)
				}
				return s.RunOnce(ctx)
			}

			fmt.Println("Starting scheduler...")
			if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler failed: %w", err)
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&once, "once", false, "Run the digest a single time and exit")
	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	return rootCmd
}

// loadConfig prefers the --config flag over CONFIG_FILE.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
