package cli

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"docrag/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the retrieval pipeline daemon",
	Long: `Run the pipeline as a long-lived daemon. It listens on two ports:
the HTTP API for index/search/status/clear, and the extraction listener
where the display-capable helper process connects to handle pdf/docx
extraction.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	p, err := newPipeline(cfg, "")
	if err != nil {
		return err
	}
	defer p.close()

	srv := api.NewServer(p.indexer, p.searcher, p.store)

	fmt.Printf("docrag daemon\n")
	fmt.Printf("  API:        http://%s\n", cfg.Server.Addr)
	fmt.Printf("  Extractor:  %s\n", p.listener.Addr())
	fmt.Printf("  Embeddings: %s (%s)\n", cfg.Embedding.Provider, cfg.Embedding.Model)

	log.Printf("listening on %s", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, srv.Routes())
}
