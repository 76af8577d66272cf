package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ledoux/bakehouse/internal/config"
	"github.com/ledoux/bakehouse/internal/importer"
	"github.com/ledoux/bakehouse/internal/logging"
	"github.com/ledoux/bakehouse/internal/store"
)

// mappingFile is the YAML override format: dbField to source header.
type mappingFile struct {
	Mapping map[string]string `yaml:"mapping"`
}

func runCmd() *cobra.Command {
	var (
		kind        string
		ownerID     int64
		mappingPath string
		dryRun      bool
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Import a CSV or XLSX file",
		Long: `Run the full import pipeline on a file: parse, map columns, resolve
order references, and commit row by row. With --dry-run the file is parsed
and the proposed column mapping printed, but nothing is written.

The --mapping flag takes a YAML file overriding the proposed mapping:

  mapping:
    order_number: "Order ID"
    sell_price: "Unit Price"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], kind, ownerID, mappingPath, dryRun, workers)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Import kind (quotes, order-items, expenses)")
	cmd.Flags().Int64VarP(&ownerID, "owner", "o", 0, "Owner the imported records belong to")
	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "YAML file with column mapping overrides")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and map only, write nothing")
	cmd.Flags().IntVar(&workers, "workers", 0, "Commit worker count (default from environment)")
	cmd.MarkFlagRequired("kind")

	return cmd
}

func runImport(ctx context.Context, path, kind string, ownerID int64, mappingPath string, dryRun bool, workers int) error {
	godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if workers <= 0 {
		workers = cfg.Import.CommitWorkers
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	orders := store.NewOrders(pool)
	svc := importer.NewService(importer.Stores{
		Orders:     orders,
		Quotes:     store.NewQuotes(pool),
		OrderItems: store.NewOrderItems(pool),
		Expenses:   store.NewExpenses(pool),
	}, importer.Config{
		PreviewRows:   cfg.Import.PreviewRows,
		CommitWorkers: workers,
		SessionTTL:    cfg.Import.SessionTTL,
	})

	preview, err := svc.Begin(kind, filepath.Base(path), data)
	if err != nil {
		return err
	}

	fmt.Printf("Parsed %d rows from %s\n", preview.TotalRows, path)
	fmt.Println("Column mapping:")
	for field, header := range preview.ProposedMapping {
		if header == "" {
			header = "(unmapped)"
		}
		fmt.Printf("  %-16s <- %s\n", field, header)
	}

	var overrides map[string]string
	if mappingPath != "" {
		raw, err := os.ReadFile(mappingPath)
		if err != nil {
			return fmt.Errorf("read mapping file: %w", err)
		}
		var mf mappingFile
		if err := yaml.Unmarshal(raw, &mf); err != nil {
			return fmt.Errorf("parse mapping file: %w", err)
		}
		overrides = mf.Mapping
	}

	if err := svc.ConfirmMapping(preview.SessionID, overrides); err != nil {
		return err
	}

	if dryRun {
		fmt.Println("Dry run: mapping is valid, nothing written.")
		return nil
	}
	if ownerID <= 0 {
		return fmt.Errorf("--owner is required to commit")
	}

	outcome, err := svc.Commit(ctx, preview.SessionID, ownerID)
	if err != nil {
		return err
	}

	fmt.Printf("Committed: %d succeeded, %d failed\n", outcome.SuccessCount, outcome.FailureCount)
	for _, f := range outcome.Failures {
		fmt.Printf("  row %d: %s\n", f.RowIndex, f.Message)
	}
	if outcome.FailureCount > 0 {
		return fmt.Errorf("%d rows failed", outcome.FailureCount)
	}
	return nil
}
