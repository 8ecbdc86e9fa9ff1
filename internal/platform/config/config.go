package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr         string
	AdminToken   string
	DatabaseURL  string
	LogLevel     string
	SeedDemoData bool
	Redis        RedisConfig
	Circulation  Circulation
}

// RedisConfig configures the optional distributed item lock. An empty URL
// disables Redis and keeps locking in-process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Circulation holds lending policy and the concurrency budget of the engine.
type Circulation struct {
	// DailyFineRate is charged per calendar day a loan is returned late.
	DailyFineRate float64
	// LoanPeriod is the default due-date offset for new loans.
	LoanPeriod time.Duration
	// RenewalPeriod is the default due-date offset for renewals.
	RenewalPeriod time.Duration
	// TxTimeout bounds one per-item critical section.
	TxTimeout time.Duration
	// TxMaxAttempts bounds retries of a critical section that lost a race.
	TxMaxAttempts int
	// LockTTL is the lease on a distributed item lock.
	LockTTL time.Duration
}

// Defaults mirror the lending policy the catalog has always used.
const (
	DefaultDailyFineRate = 0.50
	DefaultLoanPeriod    = 14 * 24 * time.Hour
	DefaultTxTimeout     = 5 * time.Second
	DefaultTxMaxAttempts = 3
	DefaultLockTTL       = 10 * time.Second
)

// DefaultCirculation returns the policy used when nothing is configured.
func DefaultCirculation() Circulation {
	return Circulation{
		DailyFineRate: DefaultDailyFineRate,
		LoanPeriod:    DefaultLoanPeriod,
		RenewalPeriod: DefaultLoanPeriod,
		TxTimeout:     DefaultTxTimeout,
		TxMaxAttempts: DefaultTxMaxAttempts,
		LockTTL:       DefaultLockTTL,
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed values fall back to their defaults; the returned error lists them
// so main can log what was ignored.
func FromEnv() (Server, error) {
	var errs []error

	addr := os.Getenv("CIRCULATION_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	circ := DefaultCirculation()
	circ.DailyFineRate = floatEnv("CIRCULATION_DAILY_FINE_RATE", circ.DailyFineRate, &errs)
	circ.LoanPeriod = daysEnv("CIRCULATION_LOAN_PERIOD_DAYS", circ.LoanPeriod, &errs)
	circ.RenewalPeriod = daysEnv("CIRCULATION_RENEWAL_PERIOD_DAYS", circ.LoanPeriod, &errs)
	circ.TxTimeout = durationEnv("CIRCULATION_TX_TIMEOUT", circ.TxTimeout, &errs)
	circ.TxMaxAttempts = intEnv("CIRCULATION_TX_MAX_ATTEMPTS", circ.TxMaxAttempts, &errs)
	circ.LockTTL = durationEnv("CIRCULATION_LOCK_TTL", circ.LockTTL, &errs)

	cfg := Server{
		Addr:         addr,
		AdminToken:   os.Getenv("ADMIN_API_TOKEN"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		SeedDemoData: os.Getenv("SEED_DEMO_DATA") == "true",
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
		},
		Circulation: circ,
	}
	return cfg, errors.Join(errs...)
}

func floatEnv(key string, def float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid non-negative number %q", key, raw))
		return def
	}
	return v
}

func intEnv(key string, def int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid positive integer %q", key, raw))
		return def
	}
	return v
}

func daysEnv(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid positive day count %q", key, raw))
		return def
	}
	return time.Duration(v) * 24 * time.Hour
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return def
	}
	return v
}
