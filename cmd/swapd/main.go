// Package main runs the swap engine daemon:
// - Feed (continuous): websocket transfer notifications -> settlement engine
// - Admin API: offer lifecycle over HTTP
// - Metrics: Prometheus /metrics + /health
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nice1-blockchain/nice1swapper/internal/api"
	"github.com/nice1-blockchain/nice1swapper/internal/feed"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger/stub"
	"github.com/nice1-blockchain/nice1swapper/internal/lifecycle"
	"github.com/nice1-blockchain/nice1swapper/internal/observability"
	"github.com/nice1-blockchain/nice1swapper/internal/settlement"
	"github.com/nice1-blockchain/nice1swapper/internal/storage"
	chstore "github.com/nice1-blockchain/nice1swapper/internal/storage/clickhouse"
	"github.com/nice1-blockchain/nice1swapper/internal/storage/memory"
	"github.com/nice1-blockchain/nice1swapper/internal/storage/migrations"
	pgstore "github.com/nice1-blockchain/nice1swapper/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	self := flag.String("self", os.Getenv("SWAPPER_SELF"), "This system's own ledger account")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("LEDGER_WS_ENDPOINT"), "Ledger node WebSocket endpoint for transfer notifications")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (settlement journal)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	apiAddr := flag.String("api-addr", ":8080", "Admin API HTTP address")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	ackMemo := flag.String("ack-memo", settlement.DefaultAckMemo, "Memo carried by outbound settlement transfers")
	allowed := flag.String("allow", os.Getenv("SWAPPER_ALLOWED_OWNERS"), "Comma-separated accounts allowed to manage offers (empty allows all)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[swapd] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *self == "" {
		logger.Fatal("--self is required")
	}
	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	metrics := observability.NewMetrics("")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	offers, journal, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Ledger backend. The stub executes transfers against in-process
	// balances; a node-backed client plugs in here once available.
	var ldg ledger.Ledger = stub.NewLedger()
	auth := stub.NewAuthorizer(splitAccounts(*allowed)...)
	logger.Printf("Using stub ledger backend; outbound transfers settle against in-process balances")

	manager := lifecycle.NewManager(lifecycle.ManagerOptions{
		Offers:  offers,
		Auth:    auth,
		Metrics: metrics,
		Logger:  logger,
	})

	engine := settlement.NewEngine(settlement.EngineOptions{
		Self:    *self,
		Offers:  offers,
		Ledger:  ldg,
		Journal: journal,
		Metrics: metrics,
		Logger:  logger,
		AckMemo: *ackMemo,
	})

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Start admin API
	apiServer := &http.Server{
		Addr:    *apiAddr,
		Handler: api.NewServer(manager, offers, journal, logger).Routes(),
	}
	go func() {
		logger.Printf("Starting admin API on %s", *apiAddr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Admin API error: %v", err)
		}
	}()

	// Connect the transfer feed
	client, err := feed.NewWSClient(ctx, *wsEndpoint, nil, metrics, logger)
	if err != nil {
		logger.Fatalf("Failed to connect transfer feed: %v", err)
	}
	logger.Printf("Subscribed to transfer notifications at %s as %s", *wsEndpoint, *self)

	runner := feed.NewRunner(client.Notices(), engine, logger)
	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- runner.Run(ctx)
	}()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, shutting down", sig)
	case err := <-runnerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("Feed runner stopped: %v", err)
		}
	}

	cancel()
	client.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Admin API shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores builds the offer registry and settlement journal, either
// in-memory or postgres+clickhouse with migrations applied.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, logger *log.Logger) (storage.OfferStore, storage.JournalStore, func(), error) {
	if useMemory {
		logger.Println("Using in-memory storage")
		return memory.NewOfferStore(), memory.NewJournalStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	offers := pgstore.NewOfferStore(pool)

	// Journal is optional: without ClickHouse, settlements simply go
	// unjournaled.
	var journal storage.JournalStore
	var chConn *chstore.Conn
	if clickhouseDSN != "" {
		chConn, err = chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			chConn.Close()
			pool.Close()
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		journal = chstore.NewJournalStore(chConn)
	} else {
		logger.Println("No ClickHouse DSN configured; settlement journal disabled")
	}

	cleanup := func() {
		if chConn != nil {
			chConn.Close()
		}
		pool.Close()
	}
	return offers, journal, cleanup, nil
}

// splitAccounts parses a comma-separated account list.
func splitAccounts(s string) []string {
	var accounts []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			accounts = append(accounts, part)
		}
	}
	return accounts
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
