package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/meshmap/internal/progress"
	"github.com/ziadkadry99/meshmap/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan [repo...]",
	Short: "Scan repositories and update the dependency graph",
	Long: `Runs the scan pipeline over the named repositories (all configured
repositories when none are given): fetches source files, runs the
detectors, and persists the resulting services and interactions.`,
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

		names := args
		if len(names) == 0 {
			for _, r := range cfg.Repos {
				names = append(names, r.FullName)
			}
		}

		ctx := context.Background()
		runner := scan.NewRunner(scans, graphs, newSource(cfg), log, nil)
		sc, err := runner.Start(ctx, names)
		if err != nil {
			return err
		}

		reporter := progress.NewReporter()
		reporter.Start(-1)
		p := runner.Pipeline(sc.ID)
		p.OnFile = func(path string) { reporter.Step(path) }

		runErr := p.Run(ctx)
		reporter.Finish()
		if runErr != nil {
			return fmt.Errorf("scan %s failed: %w", sc.ID, runErr)
		}

		services, err := graphs.ListServices(ctx)
		if err != nil {
			return err
		}
		interactions, err := graphs.ListInteractions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Scan %s complete: %d services, %d interactions in the graph\n",
			sc.ID, len(services), len(interactions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
