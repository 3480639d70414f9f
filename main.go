package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intentswap/settler/pkg/api"
	"github.com/intentswap/settler/pkg/circuitbreaker"
	"github.com/intentswap/settler/pkg/config"
	"github.com/intentswap/settler/pkg/health"
	"github.com/intentswap/settler/pkg/ledger"
	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/solver"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		lg.Notice("Received termination signal, shutting down gracefully...")
		cancel()
	}()

	// Select the ledger of record
	var led ledger.Adapter
	switch cfg.LedgerMode {
	case config.LedgerModeChain:
		chainLedger, err := ledger.DialChainLedger(ctx, cfg.RPCURL, cfg.ContractAddress, cfg.SolverPrivateKey, lg)
		if err != nil {
			log.Fatalf("Failed to connect to ledger: %v", err)
		}
		led = chainLedger
	default:
		memLedger := ledger.NewMemoryLedger()
		memLedger.Seed()
		led = memLedger
	}
	lg.InfoC(logger.Ledger, "using %s ledger", cfg.LedgerMode)

	breaker := circuitbreaker.New(
		cfg.CircuitBreaker.Enabled,
		cfg.CircuitBreaker.Threshold,
		cfg.CircuitBreaker.WindowDuration,
		cfg.CircuitBreaker.ResetTimeout,
	)

	// Health and metrics server
	healthServer := health.NewServer(cfg.MetricsPort, cfg.LedgerMode, led, breaker, lg)
	go healthServer.Start()

	// Settlement API server
	apiServer := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: api.NewRouter(led, cfg.PriceTable, cfg.LedgerMode, lg),
	}
	go func() {
		lg.InfoC(logger.API, "listening on :%s", cfg.APIPort)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.ErrorC(logger.API, "server error: %v", err)
		}
	}()

	// Solver
	s := solver.New(led, cfg.PriceTable, breaker, lg, solver.Config{
		SolverID: cfg.SolverID,
		Interval: cfg.PollInterval,
		PageSize: cfg.PageSize,
		MaxPages: cfg.MaxPages,
	})

	if cfg.RunOnce {
		if err := s.RunOnce(ctx); err != nil {
			lg.ErrorC(logger.Solver, "tick failed: %v", err)
		}
		cancel()
	} else {
		s.Run(ctx)
	}

	// Drain the API server before exiting
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		lg.ErrorC(logger.API, "shutdown error: %v", err)
	}
}
