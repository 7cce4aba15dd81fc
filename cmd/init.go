package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docdex/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize docdex configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure docdex for your document corpus and generates a .docdex.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
