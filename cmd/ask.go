package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/meshmap/internal/query"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the dependency graph",
	Long: `Answers a natural-language question over the persisted graph, e.g.
"who calls order-service", "what uses topic user-events",
"top 5 services by in-degree", or "what is reachable from checkout within 2 hops".`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	engine := query.NewEngine(graphs, log)
	res, err := engine.Ask(ctx, args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printQueryResult(res)
	return nil
}

func printQueryResult(res *query.Result) {
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	for _, c := range res.Callers {
		line := fmt.Sprintf("%s (%s", c.ServiceName, c.Kind)
		if c.Method != "" {
			line += " " + c.Method
		}
		if c.URL != "" {
			line += " " + c.URL
		}
		fmt.Println(line + ")")
	}
	for _, e := range res.TopicEdges {
		fmt.Printf("%s -> %s on topic %s\n", e.Source, e.Target, e.Topic)
	}
	for _, t := range res.Topics {
		fmt.Println(t)
	}
	for _, d := range res.Degrees {
		fmt.Printf("%s: %d inbound\n", d.ServiceName, d.InDegree)
	}
	for _, r := range res.Reachable {
		fmt.Println(r)
	}
}
