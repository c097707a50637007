package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/meshmap/internal/impact"
	"github.com/ziadkadry99/meshmap/internal/query"
	"github.com/ziadkadry99/meshmap/internal/scan"
	"github.com/ziadkadry99/meshmap/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the graph API server",
	Long:  `Starts the meshmap server with the scan, graph, impact and ask REST APIs plus a WebSocket feed of scan progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		defer log.Sync()

		database, graphs, scans, err := openStores(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		source := newSource(cfg)
		notifier := scan.NewNotifier()
		runner := scan.NewRunner(scans, graphs, source, log, notifier)
		analyzer := impact.NewAnalyzer(graphs, source, log)
		engine := query.NewEngine(graphs, log)

		port := serverPort
		if port == 0 {
			port = cfg.Port
		}
		srv := server.New(server.Config{Port: port, AllowAll: cfg.AllowAll},
			database, graphs, scans, runner, analyzer, engine, log)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "meshmap server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DBPath)

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "port to listen on (defaults to config)")
	rootCmd.AddCommand(serverCmd)
}
