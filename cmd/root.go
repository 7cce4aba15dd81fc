package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docdex",
	Short: "Semantic search index for workspace documents",
	Long: `Docdex watches a directory of text documents, chunks and embeds them
into a vector database, and serves semantic search over HTTP and MCP.
File-change hooks submit documents for indexing; a worker pool keeps
the index in sync in the background.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".docdex.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
