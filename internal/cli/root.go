package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Index a folder of documents and search it with embeddings",
	Long: `docrag extracts text from a workspace of documents, splits it into
overlapping chunks, embeds them through a configurable provider, and answers
natural-language queries by cosine similarity with citable sources.

Example usage:
  docrag serve                          # run the pipeline daemon
  docrag index .                        # index the current directory
  docrag query -q "warranty coverage"   # search a running daemon`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
