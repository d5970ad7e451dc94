package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calloway-legal/caseflow/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate [rule-file]",
	Short: "Validate a rule definition",
	Long: `Validate a rule definition file to ensure it meets all requirements.

The validator checks:
  - Required fields (name, trigger_type, actions)
  - Valid trigger types
  - Condition fields, operators, and values
  - Action structure

Examples:
  caseflow validate rule.json
  caseflow validate overdue-task-rule.json --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		filename := args[0]

		if _, err := os.Stat(filename); os.IsNotExist(err) {
			fmt.Printf("❌ Error: File '%s' not found\n", filename)
			os.Exit(1)
		}

		result, err := cli.ValidateRuleFile(filename)
		if err != nil {
			fmt.Printf("❌ Error validating rule: %v\n", err)
			os.Exit(1)
		}

		if outputJSON {
			outputValidationJSON(result)
		} else {
			outputValidationText(result, filename)
		}

		if !result.Valid {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func outputValidationText(result *cli.ValidationResult, filename string) {
	fmt.Printf("\n🔍 Validating rule: %s\n\n", filename)

	if result.Valid {
		fmt.Println("✅ Rule is valid!")
		fmt.Println("\nNext step:")
		fmt.Printf("  caseflow deploy %s\n", filename)
	} else {
		fmt.Printf("❌ Rule validation failed with %d error(s):\n\n", len(result.Errors))
		for i, err := range result.Errors {
			fmt.Printf("  %d. %s\n", i+1, err)
		}
		fmt.Println("\n💡 Tip: Fix the errors above and run validate again")
	}
}

func outputValidationJSON(result *cli.ValidationResult) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
