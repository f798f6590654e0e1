// Command knowledge-builder runs and schedules the document processing
// and indexing pipelines: parse, clean, normalize, filter, fix,
// metadata, chunk, and embed-index, per the documented stage contract.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uit-ai/knowledge-core/internal/app"
)

var configFiles []string

var rootCmd = &cobra.Command{
	Use:   "knowledge-builder",
	Short: "Runs the knowledge-core document processing and indexing pipelines",
	Long: `knowledge-builder processes source regulation and curriculum documents
through the parse -> clean -> normalize -> filter -> fix -> metadata ->
chunk -> embed-index pipeline, either on demand or on a cron schedule.`,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil,
		"configuration file path (repeatable, later files override earlier ones)")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(kvCmd)
}

func buildApp() (*app.App, error) {
	a, err := app.New(configFiles)
	if err != nil {
		return nil, fmt.Errorf("initialize application: %w", err)
	}
	return a, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
