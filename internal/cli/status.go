package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's index status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newClient(GetConfig().Server.Addr).status()
		if err != nil {
			return err
		}

		if status.IsIndexing {
			fmt.Println("Indexing: in progress")
		} else {
			fmt.Println("Indexing: idle")
		}
		fmt.Printf("Chunks:   %d\n", status.ChunkCount)
		if status.Workspace != "" {
			fmt.Printf("Workspace: %s\n", status.Workspace)
			fmt.Printf("Updated:   %s\n", status.LastUpdated.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the daemon's current index",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient(GetConfig().Server.Addr).clear(); err != nil {
			return err
		}
		fmt.Println("Index cleared.")
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex [path]",
	Short: "Ask the daemon to re-index a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := newClient(GetConfig().Server.Addr).index(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %v chunks from %v files.\n", out["chunks_indexed"], out["files_indexed"])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(reindexCmd)
}
