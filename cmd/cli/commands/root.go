package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	apiURL     string
	tenantID   string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "caseflow",
	Short: "Caseflow CLI - Manage workflow automation rules",
	Long: `The Caseflow CLI allows you to validate, deploy, and manage workflow
automation rules from the command line, and to emit test events against
a running engine.

Examples:
  caseflow validate rule.json
  caseflow deploy rule.json
  caseflow list
  caseflow emit event.json`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.caseflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Rule engine API URL")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "Tenant ID (UUID)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results in JSON format")

	viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("api.tenant", rootCmd.PersistentFlags().Lookup("tenant"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".caseflow")
	}

	viper.SetEnvPrefix("CASEFLOW")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if !outputJSON {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	if apiURL != "" && apiURL != "http://localhost:8080" {
		viper.Set("api.url", apiURL)
	}
	if tenantID != "" {
		viper.Set("api.tenant", tenantID)
	}
}
