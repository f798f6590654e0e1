package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uit-ai/knowledge-core/internal/app"
)

var (
	pipelineSourceRoot string
	pipelineForce      bool
	pipelineLimit      int
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Runs processing then indexing over every source document",
	Long: `pipeline discovers source documents under <source-root>/{regulation,curriculum}/
and runs the full process -> index pipeline over each, bounded by the
configured per-category worker concurrency.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		refs, err := app.DiscoverDocuments(pipelineSourceRoot, []string{"regulation", "curriculum"})
		if err != nil {
			return fmt.Errorf("discover documents: %w", err)
		}
		if pipelineLimit > 0 && len(refs) > pipelineLimit {
			refs = refs[:pipelineLimit]
		}

		fmt.Printf("discovered %d document(s) under %s\n", len(refs), pipelineSourceRoot)

		stats, err := a.RunBatch(context.Background(), refs, pipelineForce)
		fmt.Printf("processed=%d succeeded=%d failed=%d duration=%s\n",
			stats.Processed, stats.Succeeded, stats.Failed, stats.Duration)
		if err != nil {
			return fmt.Errorf("batch run aborted: %w", err)
		}
		return nil
	},
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineSourceRoot, "source-root", "./data/source", "root directory containing category subdirectories of source documents")
	pipelineCmd.Flags().BoolVar(&pipelineForce, "force", false, "rerun every stage regardless of completed hash match")
	pipelineCmd.Flags().IntVar(&pipelineLimit, "limit", 0, "maximum number of documents to process (0 = no limit)")
}
