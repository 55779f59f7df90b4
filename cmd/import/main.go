// Package main imports one broker statement: detect the broker, parse,
// match FIFO lots, persist, and emit a P&L report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"statement-pnl-lab/internal/money"
	"statement-pnl-lab/internal/observability"
	"statement-pnl-lab/internal/pipeline"
	"statement-pnl-lab/internal/pnl"
	"statement-pnl-lab/internal/reconcile"
	"statement-pnl-lab/internal/reporting"
	"statement-pnl-lab/internal/storage"
	chstore "statement-pnl-lab/internal/storage/clickhouse"
	"statement-pnl-lab/internal/storage/memory"
	"statement-pnl-lab/internal/storage/migrations"
	pgstore "statement-pnl-lab/internal/storage/postgres"
)

func main() {
	// .env is optional; flags and real env take precedence
	_ = godotenv.Load()

	// Parse flags
	file := flag.String("file", "", "Path to the broker statement file (required)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (empty = in-memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse DSN for the closed-trade ledger (empty = same store as trades)")
	prices := flag.String("prices", "", "Current prices for marking open lots, e.g. AAPL=231.50,SPY=505")
	realizedTotal := flag.String("realized-total", "", "Broker-reported realized total for reconciliation")
	mtmTotal := flag.String("mtm-total", "", "Broker-reported mark-to-market total for reconciliation")
	outputDir := flag.String("output-dir", "", "Directory for report.md and ledger.csv (empty = stdout)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[import] ", log.LstdFlags)

	if *file == "" {
		logger.Fatal("--file is required")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling import...", sig)
		cancel()
	}()

	var metrics *observability.Metrics
	if *metricsAddr != "" {
		metrics = observability.NewMetrics("statement_pnl_lab")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	if err := run(ctx, logger, *file, *postgresDSN, *clickhouseDSN, *prices, *realizedTotal, *mtmTotal, *outputDir, metrics); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, file, postgresDSN, clickhouseDSN, prices, realizedTotal, mtmTotal, outputDir string, metrics *observability.Metrics) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read statement: %w", err)
	}

	// Create stores (use interfaces)
	var tradeStore storage.TradeRecordStore = memory.NewTradeRecordStore()
	var closedStore storage.ClosedTradeStore = memory.NewClosedTradeStore()
	var importStore storage.ImportStore = memory.NewImportStore()

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}

		tradeStore = pgstore.NewTradeRecordStore(pool)
		closedStore = pgstore.NewClosedTradeStore(pool)
		importStore = pgstore.NewImportStore(pool)
	}

	// ClickHouse, when configured, takes over the closed-trade ledger
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		defer conn.Close()

		closedStore = chstore.NewClosedTradeStore(conn)
	}

	importer := pipeline.NewImporter(pipeline.Options{
		Trades:  tradeStore,
		Closed:  closedStore,
		Imports: importStore,
		Metrics: metrics,
	})

	result, err := importer.Import(ctx, string(raw))
	if err != nil {
		return fmt.Errorf("import statement: %w", err)
	}

	logger.Printf("Imported %s: broker=%s trades=%d closed=%d open=%d errors=%d",
		result.ImportID, result.Broker, result.TradesImported,
		len(result.ClosedTrades), len(result.OpenLots), len(result.ParseErrors))
	if result.LowConfidence {
		logger.Printf("WARNING: broker detection was ambiguous, proceeding as %s", result.Broker)
	}
	for _, pe := range result.ParseErrors {
		logger.Printf("  line %d: %s", pe.Line, pe.Message)
	}

	if prices != "" && len(result.OpenLots) > 0 {
		lookup, err := parsePrices(prices)
		if err != nil {
			return err
		}
		total, unpriced := pnl.MarkLots(result.OpenLots, lookup)
		logger.Printf("Mark-to-market: open lots value %s at supplied prices", money.Format2(total))
		for _, instrument := range unpriced {
			logger.Printf("  no price or entry premium for %s, excluded", instrument)
		}
	}

	report := reporting.Build(result, time.Now().UTC())

	if realizedTotal != "" || mtmTotal != "" {
		summary, err := parseBrokerSummary(realizedTotal, mtmTotal)
		if err != nil {
			return err
		}
		recon := reconcile.Reconcile(result.Trades, summary)
		report = report.WithReconciliation(recon)
		logger.Printf("Reconciliation: realized factor=%.6f unrealized factor=%.6f",
			recon.RealizedFactor, recon.UnrealizedFactor)
		if recon.RealizedUnreconcilable || recon.UnrealizedUnreconcilable {
			logger.Printf("WARNING: broker totals could not be reconciled against calculated P&L")
			if metrics != nil {
				metrics.ReconciliationWarnings.Inc()
			}
		}
	}

	return emit(logger, report, outputDir)
}

// parsePrices parses the --prices flag into a lookup over its symbols.
func parsePrices(s string) (pnl.PriceLookup, error) {
	prices := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		symbol, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("parse --prices: %q is not SYMBOL=PRICE", pair)
		}
		price, err := money.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("parse --prices %q: %w", pair, err)
		}
		prices[strings.ToUpper(strings.TrimSpace(symbol))] = price
	}
	return func(symbol string) (float64, bool) {
		p, ok := prices[strings.ToUpper(symbol)]
		return p, ok
	}, nil
}

// parseBrokerSummary parses the broker-total flags; an omitted flag means
// that book reconciles against zero.
func parseBrokerSummary(realizedTotal, mtmTotal string) (reconcile.BrokerSummary, error) {
	var summary reconcile.BrokerSummary
	var err error
	if realizedTotal != "" {
		if summary.RealizedTotal, err = money.Parse(realizedTotal); err != nil {
			return summary, fmt.Errorf("parse --realized-total: %w", err)
		}
	}
	if mtmTotal != "" {
		if summary.MarkToMarketTotal, err = money.Parse(mtmTotal); err != nil {
			return summary, fmt.Errorf("parse --mtm-total: %w", err)
		}
	}
	return summary, nil
}

func emit(logger *log.Logger, report *reporting.Report, outputDir string) error {
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
