// Package main regenerates P&L reports from stored imports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"statement-pnl-lab/internal/money"
	"statement-pnl-lab/internal/reporting"
	"statement-pnl-lab/internal/storage"
	chstore "statement-pnl-lab/internal/storage/clickhouse"
	pgstore "statement-pnl-lab/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	// Parse flags
	importID := flag.String("import-id", "", "Import to report on (empty = list stored imports)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for the closed-trade ledger")
	outputDir := flag.String("output-dir", "", "Directory for report.md and ledger.csv (empty = stdout)")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required: reports are generated from stored imports")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	if err := run(ctx, logger, *importID, *postgresDSN, *clickhouseDSN, *outputDir); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, importID, postgresDSN, clickhouseDSN, outputDir string) error {
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	tradeStore := pgstore.NewTradeRecordStore(pool)
	importStore := pgstore.NewImportStore(pool)

	var closedStore storage.ClosedTradeStore = pgstore.NewClosedTradeStore(pool)
	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		closedStore = chstore.NewClosedTradeStore(conn)
	}

	if importID == "" {
		return listImports(ctx, logger, importStore)
	}

	report, err := reporting.NewGenerator(tradeStore, closedStore, importStore).Generate(ctx, importID)
	if err != nil {
		return err
	}

	markdown := reporting.RenderMarkdown(report)
	if outputDir == "" {
		fmt.Print(markdown)
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	mdPath := filepath.Join(outputDir, "report.md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	csvPath := filepath.Join(outputDir, "ledger.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.ClosedTrades)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}
	logger.Printf("Wrote %s and %s", mdPath, csvPath)
	return nil
}

// listImports prints one line per stored import, newest last.
func listImports(ctx context.Context, logger *log.Logger, imports storage.ImportStore) error {
	recs, err := imports.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list imports: %w", err)
	}
	if len(recs) == 0 {
		logger.Println("No imports stored")
		return nil
	}
	for _, rec := range recs {
		cumulative := "n/a"
		if rec.CumulativePL != nil {
			cumulative = money.Format2(*rec.CumulativePL)
		}
		fmt.Printf("%s  %s  %-10s  trades=%d closed=%d errors=%d cumulative=%s\n",
			rec.ImportID, rec.ImportedAt.Format(time.RFC3339), rec.Broker,
			rec.TradeCount, rec.ClosedCount, rec.ErrorCount, cumulative)
	}
	return nil
}
