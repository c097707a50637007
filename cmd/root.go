package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meshmap",
	Short: "Service dependency discovery through static code scanning",
	Long: `Meshmap statically scans your repositories for HTTP calls and Kafka
topics, builds a service dependency graph, and answers impact questions
over it: what breaks if a service fails, and what a code change affects.
It integrates with AI agents via MCP for instant graph access.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".meshmap.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
