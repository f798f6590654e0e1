package main

import (
	"fmt"

	"github.com/uit-ai/knowledge-core/internal/pipeline"
)

func printReport(report *pipeline.RunReport) {
	if report == nil {
		return
	}
	for _, outcome := range report.Outcomes {
		switch {
		case outcome.Skipped:
			fmt.Printf("  %-12s skipped (%s)\n", outcome.Name, outcome.Reason)
		case outcome.Executed:
			fmt.Printf("  %-12s done", outcome.Name)
			if outcome.Cost > 0 {
				fmt.Printf(" (cost $%.4f)", outcome.Cost)
			}
			fmt.Println()
		default:
			fmt.Printf("  %-12s failed: %s\n", outcome.Name, outcome.Reason)
		}
	}
	fmt.Printf("total cost: $%.4f\n", report.TotalCost)
}
