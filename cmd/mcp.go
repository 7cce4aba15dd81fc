package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docdex/internal/db"
	"github.com/ziadkadry99/docdex/internal/jobs"
	mcpserver "github.com/ziadkadry99/docdex/internal/mcp"
	"github.com/ziadkadry99/docdex/internal/search"
	"github.com/ziadkadry99/docdex/internal/vectordb"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Create embedder for query embedding during search.
		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}

		store, err := vectordb.NewChromemStore(embedder)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}

		vectorDir := filepath.Join(cfg.DataDir, "vectordb")
		if err := store.Load(context.Background(), vectorDir); err != nil {
			// Log warning but continue; the store may be empty if nothing
			// has been indexed yet.
			fmt.Fprintf(os.Stderr, "Warning: could not load vector snapshot from %s: %v\n", vectorDir, err)
			fmt.Fprintf(os.Stderr, "Search results will be empty. Run `docdex resync` first.\n")
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		database, err := db.Open(filepath.Join(cfg.DataDir, "docdex.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		jobStore := jobs.NewStore(database, cfg.Worker.MaxRetries)
		searchSvc := search.NewService(embedder, store, nil)

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "docdex MCP server started on stdio (passages=%d)\n", store.Count())

		srv := mcpserver.NewServer(searchSvc, jobStore, store)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
