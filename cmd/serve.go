package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/meshmap/internal/impact"
	"github.com/ziadkadry99/meshmap/internal/logger"
	mcpserver "github.com/ziadkadry99/meshmap/internal/mcp"
	"github.com/ziadkadry99/meshmap/internal/query"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing dependency-graph tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the MCP protocol; logging must stay off it.
		log := logger.Nop()

		database, graphs, _, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		analyzer := impact.NewAnalyzer(graphs, newSource(cfg), log)
		engine := query.NewEngine(graphs, log)

		mcpserver.Version = Version
		fmt.Fprintln(os.Stderr, "meshmap MCP server started on stdio")

		srv := mcpserver.NewServer(graphs, analyzer, engine)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
