package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsReconciler/internal/app"
	"NewsReconciler/internal/config"
	"NewsReconciler/internal/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newsreconciler",
		Short: "Reconcile RSS news articles against a Wikibase knowledge base",
		Long: `newsreconciler ingests article metadata from configured RSS feeds and
reconciles each article against the knowledge base: existing records are
enriched with newly discovered facts (archive snapshot, identifiers,
publication date), new records are created, and every resolution is
remembered so the same article is never processed twice.`,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(unmatchedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run an immediate pass, then reconcile daily",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, ctx, stop, err := buildApp()
			if err != nil {
				return err
			}
			defer stop()
			return application.Run(ctx)
		},
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single reconciliation pass and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, ctx, stop, err := buildApp()
			if err != nil {
				return err
			}
			defer stop()
			return application.RunOnce(ctx)
		},
	}
}

func unmatchedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmatched",
		Short: "Print articles a reviewer declined to match or create",
		RunE: func(_ *cobra.Command, _ []string) error {
			application, _, stop, err := buildApp()
			if err != nil {
				return err
			}
			defer stop()

			records := application.Unmatched()
			if len(records) == 0 {
				fmt.Println("no unmatched articles")
				return nil
			}
			for _, record := range records {
				fmt.Printf("%s\n    %s\n", record.Title, record.URL)
			}
			return nil
		},
	}
}

func buildApp() (*app.Application, context.Context, context.CancelFunc, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return application, ctx, stop, nil
}
