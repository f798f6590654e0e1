package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <category> <document-id>",
	Short: "Prints the stage-by-stage status of one document's pipeline state",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		category, documentID := args[0], args[1]
		st, err := a.States.Load(category, documentID)
		if err != nil {
			return fmt.Errorf("load pipeline state: %w", err)
		}

		fmt.Println(a.States.StatusSummary(st))
		fmt.Printf("total cost so far: $%.4f\n", a.States.TotalCost(st))
		return nil
	},
}
