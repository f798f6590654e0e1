package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index <category> <document-id>",
	Short: "Runs the indexing pipeline (chunk and embed-index) for one processed document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		category, documentID := args[0], args[1]
		_, idx, err := a.PipelineFor(category)
		if err != nil {
			return err
		}

		report, err := idx.Run(category, documentID, indexForce)
		if err != nil {
			printReport(report)
			return fmt.Errorf("indexing pipeline failed: %w", err)
		}
		printReport(report)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-embed regardless of completed hash match")
}
