// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package orchconfig loads the session orchestrator's configuration: a YAML
// file merged with environment overrides, in the file-then-env precedence
// order used across this codebase (SPEC_FULL.md §10.3).
package orchconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/factorysim/internal/domain/session/manager"
	"github.com/ManuGH/factorysim/internal/domain/session/supervisor"
)

// Config is the orchestrator's full runtime configuration.
type Config struct {
	StoreBackend string `yaml:"storeBackend"` // sqlite | postgres | memory
	StoreDSN     string `yaml:"storeDSN"`

	HTTPListenAddr string `yaml:"httpListenAddr"`
	LogLevel       string `yaml:"logLevel"`

	MaxSessionsPerUser  int     `yaml:"maxSessionsPerUser"`
	MaxSessionsGlobal   int     `yaml:"maxSessionsGlobal"`
	DefaultDurationDays int     `yaml:"defaultDurationDays"`
	DefaultSpeedFactor  float64 `yaml:"defaultSpeedFactor"`

	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeatTimeout"`
	StopGrace         time.Duration `yaml:"stopGrace"`
	WorkerInitTimeout time.Duration `yaml:"workerInitTimeout"`

	ExpirationScanInterval time.Duration `yaml:"expirationScanInterval"`
	StaleInterruptedAge    time.Duration `yaml:"staleInterruptedAge"`

	IdempotencyTTL time.Duration `yaml:"idempotencyTTL"`
}

// Default returns the baked-in defaults, matching each subsystem's own
// DefaultConfig so a field omitted everywhere still behaves sanely.
func Default() Config {
	sweep := manager.DefaultSweeperConfig()
	mgr := manager.DefaultConfig()
	pool := supervisor.DefaultConfig()
	return Config{
		StoreBackend:           "sqlite",
		StoreDSN:               "factorysim.db",
		HTTPListenAddr:         ":8080",
		LogLevel:               "info",
		MaxSessionsPerUser:     mgr.MaxSessionsPerUser,
		MaxSessionsGlobal:      mgr.MaxSessionsGlobal,
		DefaultDurationDays:    mgr.DefaultDurationDays,
		DefaultSpeedFactor:     mgr.DefaultSpeedFactor,
		HeartbeatInterval:      5 * time.Second,
		HeartbeatTimeout:       pool.HeartbeatTimeout,
		StopGrace:              pool.StopGrace,
		WorkerInitTimeout:      mgr.WorkerInitTimeout,
		ExpirationScanInterval: sweep.Interval,
		StaleInterruptedAge:    sweep.StaleInterruptedAge,
		IdempotencyTTL:         mgr.IdempotencyTTL,
	}
}

// Load reads path (if non-empty and present) over Default(), then applies
// FACTORYSIM_* environment overrides, matching the teacher's file-then-env
// precedence (SPEC_FULL.md §10.3).
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("orchconfig: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("orchconfig: parse %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envString("FACTORYSIM_STORE_BACKEND", &cfg.StoreBackend)
	envString("FACTORYSIM_STORE_DSN", &cfg.StoreDSN)
	envString("FACTORYSIM_HTTP_LISTEN_ADDR", &cfg.HTTPListenAddr)
	envString("FACTORYSIM_LOG_LEVEL", &cfg.LogLevel)
	envInt("FACTORYSIM_MAX_SESSIONS_PER_USER", &cfg.MaxSessionsPerUser)
	envInt("FACTORYSIM_MAX_SESSIONS_GLOBAL", &cfg.MaxSessionsGlobal)
	envInt("FACTORYSIM_DEFAULT_DURATION_DAYS", &cfg.DefaultDurationDays)
	envFloat("FACTORYSIM_DEFAULT_SPEED_FACTOR", &cfg.DefaultSpeedFactor)
	envDuration("FACTORYSIM_HEARTBEAT_INTERVAL", &cfg.HeartbeatInterval)
	envDuration("FACTORYSIM_HEARTBEAT_TIMEOUT", &cfg.HeartbeatTimeout)
	envDuration("FACTORYSIM_STOP_GRACE", &cfg.StopGrace)
	envDuration("FACTORYSIM_WORKER_INIT_TIMEOUT", &cfg.WorkerInitTimeout)
	envDuration("FACTORYSIM_EXPIRATION_SCAN_INTERVAL", &cfg.ExpirationScanInterval)
	envDuration("FACTORYSIM_STALE_INTERRUPTED_AGE", &cfg.StaleInterruptedAge)
	envDuration("FACTORYSIM_IDEMPOTENCY_TTL", &cfg.IdempotencyTTL)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// ManagerConfig projects the fields manager.Config needs.
func (c Config) ManagerConfig() manager.Config {
	return manager.Config{
		MaxSessionsPerUser:  c.MaxSessionsPerUser,
		MaxSessionsGlobal:   c.MaxSessionsGlobal,
		DefaultDurationDays: c.DefaultDurationDays,
		DefaultSpeedFactor:  c.DefaultSpeedFactor,
		WorkerInitTimeout:   c.WorkerInitTimeout,
		IdempotencyTTL:      c.IdempotencyTTL,
	}
}

// SupervisorConfig projects the fields supervisor.Config needs.
func (c Config) SupervisorConfig() supervisor.Config {
	d := supervisor.DefaultConfig()
	d.HeartbeatTimeout = c.HeartbeatTimeout
	d.StopGrace = c.StopGrace
	return d
}

// SweeperConfig projects the fields manager.SweeperConfig needs.
func (c Config) SweeperConfig() manager.SweeperConfig {
	return manager.SweeperConfig{
		Interval:            c.ExpirationScanInterval,
		StaleInterruptedAge: c.StaleInterruptedAge,
	}
}
