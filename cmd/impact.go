package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/meshmap/internal/impact"
)

var impactCmd = &cobra.Command{
	Use:   "impact [service]",
	Short: "Compute the blast radius of a service failing",
	Long: `Computes which services are exposed to a failure of the given service:
its direct dependents plus one cascade hop. With --log, the seed service
is extracted from error-log text read from stdin instead. With --file,
the impact of changing that file is simulated.`,
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().Bool("log", false, "read error-log text from stdin and extract the seed from it")
	impactCmd.Flags().String("file", "", "simulate the impact of changing this file path")
	impactCmd.Flags().String("repo", "", "repository owning --file (owner/name)")
	impactCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	fromLog, _ := cmd.Flags().GetBool("log")
	filePath, _ := cmd.Flags().GetString("file")
	repo, _ := cmd.Flags().GetString("repo")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if !fromLog && filePath == "" && len(args) == 0 {
		return fmt.Errorf("a service name, --log, or --file is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Sync()

	database, graphs, _, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	analyzer := impact.NewAnalyzer(graphs, newSource(cfg), log)

	var res *impact.Result
	switch {
	case fromLog:
		logText, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading log from stdin: %w", err)
		}
		res, err = analyzer.AnalyzeLog(ctx, string(logText))
		if err != nil {
			return err
		}
	case filePath != "":
		res, err = analyzer.SimulateChange(ctx, repo, filePath)
		if err != nil {
			return err
		}
	default:
		res, err = analyzer.AnalyzeService(ctx, args[0])
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printImpactResult(res)
	return nil
}

func printImpactResult(res *impact.Result) {
	if res.NotFound {
		fmt.Println("Service not found.")
		if len(res.KnownServices) > 0 {
			fmt.Println("Known services:")
			for _, name := range res.KnownServices {
				fmt.Printf("  %s\n", name)
			}
		}
		return
	}

	if res.Seed != nil {
		fmt.Printf("Blast radius of %s:\n", res.Seed.Name)
	}
	for _, d := range res.Direct {
		line := fmt.Sprintf("  %s %s", d.Name, d.Reason)
		if d.Detail != "" {
			line += fmt.Sprintf(" (%s %s)", d.Kind, d.Detail)
		}
		fmt.Println(line)
	}
	for _, c := range res.Cascade {
		fmt.Printf("  %s affected via %s\n", c.Name, c.Via)
	}
	if res.Reasoning != "" {
		fmt.Println(res.Reasoning)
	}
}
