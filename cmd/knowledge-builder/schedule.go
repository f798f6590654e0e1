package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uit-ai/knowledge-core/internal/app"
	"github.com/uit-ai/knowledge-core/internal/pipeline"
)

var scheduleSourceRoot string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs the cron scheduler, triggering periodic batch pipeline runs",
	Long: `schedule blocks and drives the configured processing.schedule cron
expression, running the full batch pipeline at each tick until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Config.Processing.Enabled {
			return fmt.Errorf("processing.enabled is false in configuration; nothing to schedule")
		}

		runFn := func(ctx context.Context) (pipeline.BatchStats, error) {
			refs, err := app.DiscoverDocuments(scheduleSourceRoot, []string{"regulation", "curriculum"})
			if err != nil {
				return pipeline.BatchStats{}, err
			}
			limit := a.Config.Processing.Limit
			if limit > 0 && len(refs) > limit {
				refs = refs[:limit]
			}
			return a.RunBatch(ctx, refs, false)
		}

		scheduler := pipeline.NewScheduler(runFn, a.Logger)
		if err := scheduler.Start(a.Config.Processing.Schedule); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer scheduler.Stop()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSourceRoot, "source-root", "./data/source", "root directory containing category subdirectories of source documents")
}
