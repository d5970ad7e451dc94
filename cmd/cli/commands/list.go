package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/calloway-legal/caseflow/internal/models"
)

var activeOnly bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules for the tenant",
	Long: `List workflow automation rules from the rule engine server.

Examples:
  caseflow list
  caseflow list --active-only
  caseflow list --json`,
	Run: func(cmd *cobra.Command, args []string) {
		client := newClientFromConfig()

		if err := client.HealthCheck(); err != nil {
			fmt.Printf("❌ API health check failed: %v\n", err)
			fmt.Println("💡 Tip: Make sure the API server is running")
			os.Exit(1)
		}

		response, err := client.ListRules()
		if err != nil {
			fmt.Printf("❌ Failed to list rules: %v\n", err)
			os.Exit(1)
		}

		rules := response.Rules
		if activeOnly {
			filtered := rules[:0]
			for _, r := range rules {
				if r.IsActive {
					filtered = append(filtered, r)
				}
			}
			rules = filtered
		}

		if outputJSON {
			data, err := json.MarshalIndent(rules, "", "  ")
			if err != nil {
				fmt.Printf("Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
			return
		}

		if len(rules) == 0 {
			fmt.Println("No rules found")
			return
		}

		printRuleTable(rules)
	},
}

func init() {
	listCmd.Flags().BoolVar(&activeOnly, "active-only", false, "Show only active rules")
	rootCmd.AddCommand(listCmd)
}

func printRuleTable(rules []models.WorkflowRule) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTRIGGER\tPRIORITY\tACTIVE")
	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n", r.ID, r.Name, r.TriggerType, r.Priority, r.IsActive)
	}
	w.Flush()
}
