package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean <category> <document-id>",
	Short: "Deletes a document's stage directory so its pipeline starts fresh",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		category, documentID := args[0], args[1]
		dir := a.States.DocumentDir(category, documentID)

		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove document directory %s: %w", dir, err)
		}
		fmt.Printf("removed %s\n", dir)
		return nil
	},
}
