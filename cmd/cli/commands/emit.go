package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calloway-legal/caseflow/internal/models"
)

var emitCmd = &cobra.Command{
	Use:   "emit [event-file]",
	Short: "Emit a domain event",
	Long: `Emit a domain event against the rule engine and print the per-rule
execution reports.

The event file is a JSON document:
  {
    "trigger_type": "task_overdue",
    "payload": {
      "task": {"id": "...", "days_overdue": 3}
    }
  }

Examples:
  caseflow emit event.json
  caseflow emit event.json --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Printf("❌ Error: failed to read '%s': %v\n", filename, err)
			os.Exit(1)
		}

		var event models.EmitEventRequest
		if err := json.Unmarshal(data, &event); err != nil {
			fmt.Printf("❌ Error: failed to parse event: %v\n", err)
			os.Exit(1)
		}

		client := newClientFromConfig()

		response, err := client.EmitEvent(&event)
		if err != nil {
			fmt.Printf("❌ Failed to emit event: %v\n", err)
			os.Exit(1)
		}

		if outputJSON {
			out, err := json.MarshalIndent(response, "", "  ")
			if err != nil {
				fmt.Printf("Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		fmt.Printf("\n⚡ Event %s processed, %d rule(s) evaluated\n\n", response.TriggerType, len(response.Reports))
		for _, report := range response.Reports {
			status := "skipped"
			if report.Matched {
				status = "matched"
			}
			fmt.Printf("  %s (%s): %s\n", report.RuleName, report.RuleID, status)
			for _, outcome := range report.ActionsExecuted {
				if outcome.Success {
					fmt.Printf("    ✅ %s\n", outcome.ActionKind)
				} else {
					fmt.Printf("    ❌ %s: %s (%s)\n", outcome.ActionKind, outcome.Error, outcome.ErrorKind)
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(emitCmd)
}
