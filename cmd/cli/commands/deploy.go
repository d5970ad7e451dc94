package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/calloway-legal/caseflow/internal/cli"
	"github.com/calloway-legal/caseflow/internal/models"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [rule-file]",
	Short: "Deploy a rule to the server",
	Long: `Deploy a rule definition to the rule engine server.

The deploy command will:
  1. Validate the rule definition
  2. Check if the API server is reachable
  3. Create the rule on the server

Examples:
  caseflow deploy rule.json
  caseflow deploy rule.json --tenant 9f3c... --api-url http://prod.example.com:8080`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		if _, err := os.Stat(filename); os.IsNotExist(err) {
			fmt.Printf("❌ Error: File '%s' not found\n", filename)
			os.Exit(1)
		}

		fmt.Println("🔍 Validating rule...")
		validationResult, err := cli.ValidateRuleFile(filename)
		if err != nil {
			fmt.Printf("❌ Error validating rule: %v\n", err)
			os.Exit(1)
		}

		if !validationResult.Valid {
			fmt.Println("❌ Rule validation failed:")
			for _, err := range validationResult.Errors {
				fmt.Printf("  - %s\n", err)
			}
			os.Exit(1)
		}
		fmt.Println("✅ Validation passed")

		rule, err := cli.LoadRuleFromFile(filename)
		if err != nil {
			fmt.Printf("❌ Error loading rule: %v\n", err)
			os.Exit(1)
		}

		client := newClientFromConfig()

		apiURL := viper.GetString("api.url")
		fmt.Printf("🔗 Connecting to API: %s\n", apiURL)
		if err := client.HealthCheck(); err != nil {
			fmt.Printf("❌ API health check failed: %v\n", err)
			fmt.Println("💡 Tip: Make sure the API server is running")
			os.Exit(1)
		}

		fmt.Printf("🚀 Deploying rule '%s'...\n", rule.Name)
		created, err := client.CreateRule(rule)
		if err != nil {
			fmt.Printf("❌ Failed to deploy rule: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("✅ Rule deployed successfully!")
		printRuleInfo(created)

		fmt.Println("\n📋 Next steps:")
		fmt.Printf("  • List rules:    caseflow list\n")
		fmt.Printf("  • Emit an event: caseflow emit event.json\n")
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
}

func newClientFromConfig() *cli.Client {
	return cli.NewClient(viper.GetString("api.url"), viper.GetString("api.tenant"))
}

func printRuleInfo(rule *models.WorkflowRule) {
	fmt.Printf("\n  ID:       %s\n", rule.ID)
	fmt.Printf("  Name:     %s\n", rule.Name)
	fmt.Printf("  Trigger:  %s\n", rule.TriggerType)
	fmt.Printf("  Priority: %d\n", rule.Priority)
	fmt.Printf("  Active:   %t\n", rule.IsActive)
}
