package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	Long: `Print the configuration after the config file, LLM_FUNCTIONS_DIR,
AICHAT_FUNCTIONS_DIR and LLM_FUNCTIONS_JSON have been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), appConfig.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
