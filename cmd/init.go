package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/meshmap/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize meshmap configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure meshmap for your repositories and generates a .meshmap.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
