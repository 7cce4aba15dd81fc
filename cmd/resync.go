package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docdex/internal/db"
	"github.com/ziadkadry99/docdex/internal/jobs"
	"github.com/ziadkadry99/docdex/internal/progress"
	"github.com/ziadkadry99/docdex/internal/resync"
)

var (
	resyncDryRun bool
	resyncForce  bool
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Reconcile the index with the documents on disk",
	Long: `Walks the corpus and enqueues indexing jobs for documents that are new,
changed or removed since the last sync. The jobs are processed by the
worker pool of a running docdex server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
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
		coordinator := resync.NewCoordinator(jobStore, walkerConfigFromConfig(cfg), cfg.DataDir, progress.NewReporter())

		summary, err := coordinator.Run(context.Background(), resync.Options{
			Force:  resyncForce,
			DryRun: resyncDryRun,
		})
		if err != nil {
			return err
		}

		verb := "enqueued"
		if resyncDryRun {
			verb = "would enqueue"
		}
		fmt.Printf("Scanned %d documents: %s %d, %d deletions, %d unchanged, %d errors\n",
			summary.Scanned, verb, summary.Enqueued, summary.Deleted, summary.Skipped, summary.Errors)
		return nil
	},
}

func init() {
	resyncCmd.Flags().BoolVar(&resyncDryRun, "dry-run", false, "report what would change without enqueueing jobs")
	resyncCmd.Flags().BoolVar(&resyncForce, "force", false, "re-enqueue every document regardless of stored hashes")
	rootCmd.AddCommand(resyncCmd)
}
