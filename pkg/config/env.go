package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/quote"
)

const (
	// LedgerModeMemory runs against the in-process reference ledger
	LedgerModeMemory = "memory"
	// LedgerModeChain runs against the on-chain intents contract
	LedgerModeChain = "chain"

	// DefaultLedgerMode selects the reference ledger
	DefaultLedgerMode = LedgerModeMemory

	// DefaultPollInterval defines the solver polling interval in seconds
	DefaultPollInterval = 10

	// DefaultPageSize defines the ledger listing page size
	DefaultPageSize = 10

	// DefaultMaxPages caps the listing loop per tick
	DefaultMaxPages = 20

	// DefaultAPIPort is the settlement API listen port
	DefaultAPIPort = "8787"

	// DefaultMetricsPort is the health/metrics server listen port
	DefaultMetricsPort = "8080"

	// DefaultSolverID identifies this solver on fills when no address
	// is configured
	DefaultSolverID = "STSOLVERMOCK0000000000000000000000000"

	// DefaultCircuitBreakerEnabled defines whether the breaker guards ticks
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold is the failure count that trips the breaker
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow is the failure-count window in seconds
	DefaultCircuitBreakerWindow = 60

	// DefaultCircuitBreakerReset is the open-state timeout in seconds
	DefaultCircuitBreakerReset = 120
)

// GetEnvLedgerMode returns the configured ledger mode.
func GetEnvLedgerMode() (string, error) {
	mode := os.Getenv("LEDGER_MODE")
	if mode == "" {
		return DefaultLedgerMode, nil
	}
	if mode != LedgerModeMemory && mode != LedgerModeChain {
		return "", fmt.Errorf("invalid LEDGER_MODE value: %s, must be '%s' or '%s'", mode, LedgerModeMemory, LedgerModeChain)
	}
	return mode, nil
}

// GetEnvRPCURL returns the ledger RPC endpoint for chain mode.
func GetEnvRPCURL() (string, error) {
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		return "", nil
	}
	if _, err := url.ParseRequestURI(rpcURL); err != nil {
		return "", fmt.Errorf("invalid RPC_URL value: %s, must be a valid URL", rpcURL)
	}
	return rpcURL, nil
}

// GetEnvPollInterval returns the solver polling interval in seconds.
func GetEnvPollInterval() (time.Duration, error) {
	pollInterval := os.Getenv("POLL_INTERVAL")
	if pollInterval == "" {
		return time.Duration(DefaultPollInterval) * time.Second, nil
	}

	interval, err := strconv.Atoi(pollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid POLL_INTERVAL value: %s, must be an integer", pollInterval)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("POLL_INTERVAL must be greater than 0")
	}
	return time.Duration(interval) * time.Second, nil
}

// GetEnvPageSize returns the listing page size.
func GetEnvPageSize() (int, error) {
	pageSize := os.Getenv("PAGE_SIZE")
	if pageSize == "" {
		return DefaultPageSize, nil
	}

	size, err := strconv.Atoi(pageSize)
	if err != nil {
		return 0, fmt.Errorf("invalid PAGE_SIZE value: %s, must be an integer", pageSize)
	}
	if size <= 0 {
		return 0, fmt.Errorf("PAGE_SIZE must be greater than 0")
	}
	return size, nil
}

// GetEnvMaxPages returns the per-tick listing page cap.
func GetEnvMaxPages() (int, error) {
	maxPages := os.Getenv("MAX_PAGES")
	if maxPages == "" {
		return DefaultMaxPages, nil
	}

	pages, err := strconv.Atoi(maxPages)
	if err != nil {
		return 0, fmt.Errorf("invalid MAX_PAGES value: %s, must be an integer", maxPages)
	}
	if pages <= 0 {
		return 0, fmt.Errorf("MAX_PAGES must be greater than 0")
	}
	return pages, nil
}

// GetEnvRunOnce returns whether the solver should perform a single
// tick and exit.
func GetEnvRunOnce() (bool, error) {
	return getEnvBool("RUN_ONCE", false)
}

// GetEnvAPIPort returns the settlement API port.
func GetEnvAPIPort() (string, error) {
	return getEnvPort("API_PORT", DefaultAPIPort)
}

// GetEnvMetricsPort returns the health/metrics server port.
func GetEnvMetricsPort() (string, error) {
	return getEnvPort("METRICS_PORT", DefaultMetricsPort)
}

// GetEnvSolverID returns the identity credited on fills.
func GetEnvSolverID() string {
	solverID := os.Getenv("SOLVER_ADDRESS")
	if solverID == "" {
		return DefaultSolverID
	}
	return solverID
}

// GetEnvPriceTable returns the configured price table, or the default
// demo table when PRICE_TABLE is unset.
func GetEnvPriceTable() (quote.Table, error) {
	raw := os.Getenv("PRICE_TABLE")
	if raw == "" {
		return quote.DefaultTable(), nil
	}
	table, err := quote.ParseTable(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_TABLE value: %v", err)
	}
	return table, nil
}

// GetEnvLogLevel returns the configured log level.
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "", "info":
		return logger.InfoLevel, nil
	case "debug":
		return logger.DebugLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be 'debug', 'info', 'notice' or 'error'", level)
}

// GetEnvLogColoring returns whether log output is colored.
func GetEnvLogColoring() (bool, error) {
	return getEnvBool("LOG_COLORING", true)
}

// GetEnvCircuitBreakerEnabled returns whether the breaker is enabled.
func GetEnvCircuitBreakerEnabled() (bool, error) {
	return getEnvBool("CIRCUIT_BREAKER_ENABLED", DefaultCircuitBreakerEnabled)
}

// GetEnvCircuitBreakerThreshold returns the breaker trip threshold.
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the breaker failure window.
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow*time.Second)
}

// GetEnvCircuitBreakerReset returns the breaker reset timeout.
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	return getEnvDuration("CIRCUIT_BREAKER_RESET", DefaultCircuitBreakerReset*time.Second)
}

func getEnvBool(key string, def bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	if val == "true" {
		return true, nil
	}
	if val == "false" {
		return false, nil
	}
	return false, fmt.Errorf("invalid %s value: %s, must be 'true' or 'false'", key, val)
}

func getEnvPort(key, def string) (string, error) {
	port := os.Getenv(key)
	if port == "" {
		return def, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid integer", key, port)
	}
	return port, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be a valid duration string", key, val)
	}
	return parsed, nil
}
