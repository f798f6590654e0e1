package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var processForce bool

var processCmd = &cobra.Command{
	Use:   "process <category> <document-id> <source-file>",
	Short: "Runs the processing pipeline (parse through metadata) for one document",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		category, documentID, sourceFile := args[0], args[1], args[2]
		proc, _, err := a.PipelineFor(category)
		if err != nil {
			return err
		}

		report, err := proc.Run(category, documentID, sourceFile, processForce)
		if err != nil {
			printReport(report)
			return fmt.Errorf("processing pipeline failed: %w", err)
		}
		printReport(report)
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVar(&processForce, "force", false, "rerun stages regardless of completed hash match")
}
