package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the daemon's indexed workspace",
	Long: `Search for relevant document chunks on a running docrag daemon.

Examples:
  docrag query -q "warranty coverage period"
  docrag query -q "torque spec" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	topK := cfg.Search.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	results, err := newClient(cfg.Server.Addr).search(queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printResults(queryText, results)
	return nil
}
