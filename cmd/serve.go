package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docdex/internal/db"
	"github.com/ziadkadry99/docdex/internal/jobs"
	"github.com/ziadkadry99/docdex/internal/resync"
	"github.com/ziadkadry99/docdex/internal/search"
	"github.com/ziadkadry99/docdex/internal/server"
	"github.com/ziadkadry99/docdex/internal/vectordb"
	"github.com/ziadkadry99/docdex/internal/worker"
)

var servePort int

// snapshotInterval is how often the vector store is flushed to disk.
const snapshotInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the indexing server",
	Long: `Starts the docdex HTTP server together with the background worker pool.
File-change hooks POST documents to /api/process-file; workers chunk,
embed and index them, and /api/search serves semantic queries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

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
			fmt.Fprintf(os.Stderr, "Warning: could not load vector snapshot from %s: %v\n", vectorDir, err)
		}

		dbPath := filepath.Join(cfg.DataDir, "docdex.db")
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		jobStore := jobs.NewStore(database, cfg.Worker.MaxRetries)

		literal, err := search.NewLiteralIndex()
		if err != nil {
			return fmt.Errorf("creating literal index: %w", err)
		}

		searchSvc := search.NewService(embedder, store, literal)

		coordinator := resync.NewCoordinator(jobStore, walkerConfigFromConfig(cfg), cfg.DataDir, nil)

		pool := worker.NewPool(worker.Config{
			Workers:      cfg.Worker.Count,
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
			StaleAfter:   time.Duration(cfg.Worker.StaleAfterSeconds) * time.Second,
		}, jobStore, embedder, store, literal)

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}
		srv := server.New(server.Config{
			Port:           port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, jobStore, store, embedder, searchSvc, coordinator)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pool.Start(ctx)

		// Periodic vector snapshots so restarts don't lose the index.
		snapshotDone := make(chan struct{})
		go func() {
			defer close(snapshotDone)
			ticker := time.NewTicker(snapshotInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := store.Persist(context.Background(), vectorDir); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: vector snapshot failed: %v\n", err)
					}
				}
			}
		}()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "docdex server v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Corpus: %s\n", cfg.CorpusDir)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Passages indexed: %d\n", store.Count())

		serveErr := srv.Start()

		stop()
		pool.Stop()
		<-snapshotDone
		if err := store.Persist(context.Background(), vectorDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: final vector snapshot failed: %v\n", err)
		}

		if serveErr != nil && serveErr != http.ErrServerClosed {
			return serveErr
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
