package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/intentswap/settler/pkg/logger"
	"github.com/intentswap/settler/pkg/quote"
)

// Config holds the configuration for the settler process.
type Config struct {
	LedgerMode       string
	RPCURL           string
	ContractAddress  string
	SolverPrivateKey string
	SolverID         string
	PollInterval     time.Duration
	PageSize         int
	MaxPages         int
	RunOnce          bool
	APIPort          string
	MetricsPort      string
	PriceTable       quote.Table
	CircuitBreaker   CircuitBreakerConfig
	LoggerConfig     LoggerConfig
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	ledgerMode, err := GetEnvLedgerMode()
	if err != nil {
		return nil, err
	}

	rpcURL, err := GetEnvRPCURL()
	if err != nil {
		return nil, err
	}

	pollInterval, err := GetEnvPollInterval()
	if err != nil {
		return nil, err
	}

	pageSize, err := GetEnvPageSize()
	if err != nil {
		return nil, err
	}

	maxPages, err := GetEnvMaxPages()
	if err != nil {
		return nil, err
	}

	runOnce, err := GetEnvRunOnce()
	if err != nil {
		return nil, err
	}

	apiPort, err := GetEnvAPIPort()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	priceTable, err := GetEnvPriceTable()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LedgerMode:       ledgerMode,
		RPCURL:           rpcURL,
		ContractAddress:  os.Getenv("INTENT_ADDRESS"),
		SolverPrivateKey: os.Getenv("SOLVER_PRIVATE_KEY"),
		SolverID:         GetEnvSolverID(),
		PollInterval:     pollInterval,
		PageSize:         pageSize,
		MaxPages:         maxPages,
		RunOnce:          runOnce,
		APIPort:          apiPort,
		MetricsPort:      metricsPort,
		PriceTable:       priceTable,
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	// Validate required environment variables
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.LedgerMode == LedgerModeChain {
		if cfg.RPCURL == "" {
			return fmt.Errorf("RPC_URL environment variable is required in chain mode")
		}
		if cfg.ContractAddress == "" {
			return fmt.Errorf("INTENT_ADDRESS environment variable is required in chain mode")
		}
		if cfg.SolverPrivateKey == "" {
			return fmt.Errorf("SOLVER_PRIVATE_KEY environment variable is required in chain mode")
		}
	}
	return nil
}
