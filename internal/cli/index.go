package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/internal/domain"
)

var (
	indexQuery string
	indexWait  time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a workspace of documents",
	Long: `Extract, chunk and embed every document in the workspace, then
optionally run a query against the fresh index.

Page-oriented formats (pdf, docx) are extracted by a helper process that
connects to the extraction listener; until it connects, those files are
skipped with a warning.

Examples:
  docrag index .                          # index the current directory
  docrag index ~/docs --query "warranty"  # index, then search`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVarP(&indexQuery, "query", "q", "", "run this query after indexing")
	indexCmd.Flags().DurationVar(&indexWait, "wait-extractor", 0, "wait up to this long for the extraction helper to connect")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	p, err := newPipeline(GetConfig(), path)
	if err != nil {
		return err
	}
	defer p.close()

	if indexWait > 0 {
		waitForExtractor(p, indexWait)
	}

	fmt.Printf("Indexing %s...\n", path)

	var bar *progressbar.ProgressBar
	var lastPhase string

	summary, err := p.indexer.Index(path, func(pr domain.Progress) {
		if pr.Phase != lastPhase {
			if bar != nil {
				fmt.Println()
			}
			desc := "[cyan]Extracting[reset]"
			if pr.Phase == domain.PhaseEmbedding {
				desc = "[cyan]Embedding[reset]"
			}
			bar = progressbar.NewOptions(pr.Total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(desc),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			lastPhase = pr.Phase
		}
		bar.Set(pr.Current)
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("\n%s\n", green("Indexing complete"))
	fmt.Printf("  Files indexed:  %d\n", summary.FilesIndexed)
	fmt.Printf("  Files skipped:  %d\n", summary.FilesSkipped)
	fmt.Printf("  Chunks indexed: %d\n", summary.ChunksIndexed)

	if len(summary.Errors) > 0 {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("\n%s\n", yellow("Warnings:"))
		for _, e := range summary.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if indexQuery != "" {
		fmt.Println()
		results, err := p.searcher.Search(indexQuery, GetConfig().Search.TopK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		printResults(indexQuery, toSearchResults(results))
	}

	return nil
}

func waitForExtractor(p *pipeline, wait time.Duration) {
	deadline := time.Now().Add(wait)
	for !p.bridge.Ready() && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if !p.bridge.Ready() {
		fmt.Println("Extraction helper did not connect; pdf/docx files will be skipped.")
	}
}
