// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const latencyEnv = "SIMULATED_LATENCY"

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress       string        `env:"RUN_ADDRESS"`
	DatabaseURI      string        `env:"DATABASE_URI"`
	SessionSecret    string        `env:"SESSION_SECRET"`
	SimulatedLatency time.Duration `env:"SIMULATED_LATENCY"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envSessionSecret := cfg.SessionSecret
	envLatency := cfg.SimulatedLatency
	_, latencySet := os.LookupEnv(latencyEnv)

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, in-memory storage when empty")
	flag.StringVar(&cfg.SessionSecret, "s", "", "secret for signing client cookies")
	flag.DurationVar(&cfg.SimulatedLatency, "l", 0, "simulated latency of login and order requests")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}
	if latencySet {
		cfg.SimulatedLatency = envLatency
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.SimulatedLatency < 0 {
		return nil, fmt.Errorf("simulated latency must not be negative: %s", cfg.SimulatedLatency)
	}

	return cfg, nil
}
