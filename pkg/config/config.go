// Package config loads holdem settings from defaults, .env files, HOLDEM_*
// environment variables and command line flags, in that order of increasing
// precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/vctt94/holdem/pkg/logging"
	"github.com/vctt94/holdem/pkg/poker"
)

// Store drivers accepted by DBDriver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every tunable of the holdem binaries.
type Config struct {
	DataDir     string
	DBDriver    string
	DBPath      string
	PostgresDSN string

	RedisURL           string
	RedisChannelPrefix string
	AMQPURL            string
	AMQPExchange       string

	DebugLevel string
	LogFile    string
	Seed       int64

	RateLimit      int
	RateWindow     time.Duration
	SweepInterval  time.Duration
	TurnTimeout    time.Duration
	EventQueueSize int
	EventWorkers   int

	// Simulation.
	Rooms         int
	Seats         int
	Hands         int
	SmallBlind    int64
	BigBlind      int64
	StartingStack int64
}

// Default returns the built in settings.
func Default() Config {
	return Config{
		DataDir:            defaultDataDir(),
		DBDriver:           DriverMemory,
		RedisChannelPrefix: "holdem:room",
		AMQPExchange:       "poker.game",
		DebugLevel:         "info",
		RateLimit:          5,
		RateWindow:         time.Second,
		SweepInterval:      10 * time.Second,
		EventQueueSize:     1000,
		EventWorkers:       3,
		Rooms:              4,
		Seats:              6,
		Hands:              100,
		SmallBlind:         10,
		BigBlind:           20,
		StartingStack:      1000,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".holdem"
	}
	return filepath.Join(home, ".holdem")
}

type binding struct {
	flag  string
	env   string
	usage string
	ptr   any
}

func (c *Config) bindings() []binding {
	return []binding{
		{"datadir", "HOLDEM_DATADIR", "Directory for data and logs", &c.DataDir},
		{"db", "HOLDEM_DB_DRIVER", "Room store: memory, sqlite or postgres", &c.DBDriver},
		{"dbpath", "HOLDEM_DB_PATH", "SQLite database file (default <datadir>/holdem.db)", &c.DBPath},
		{"pgdsn", "HOLDEM_PG_DSN", "Postgres connection string", &c.PostgresDSN},
		{"redis", "HOLDEM_REDIS_URL", "Redis URL for room notifications (empty disables)", &c.RedisURL},
		{"redisprefix", "HOLDEM_REDIS_PREFIX", "Redis channel prefix", &c.RedisChannelPrefix},
		{"amqp", "HOLDEM_AMQP_URL", "AMQP URL for chip updates (empty disables)", &c.AMQPURL},
		{"amqpexchange", "HOLDEM_AMQP_EXCHANGE", "AMQP topic exchange", &c.AMQPExchange},
		{"debuglevel", "HOLDEM_DEBUGLEVEL", "Logging level: trace, debug, info, warn, error, critical, off", &c.DebugLevel},
		{"logfile", "HOLDEM_LOGFILE", "Rotated log file (empty logs to stdout only)", &c.LogFile},
		{"seed", "HOLDEM_SEED", "Deterministic RNG seed for decks (0 = random)", &c.Seed},
		{"ratelimit", "HOLDEM_RATE_LIMIT", "Actions allowed per user per window", &c.RateLimit},
		{"ratewindow", "HOLDEM_RATE_WINDOW", "Rate limit window", &c.RateWindow},
		{"sweep", "HOLDEM_SWEEP_INTERVAL", "Rate limiter sweep interval", &c.SweepInterval},
		{"turntimeout", "HOLDEM_TURN_TIMEOUT", "Fold a player after this long on the clock (0 disables)", &c.TurnTimeout},
		{"eventqueue", "HOLDEM_EVENT_QUEUE", "Event queue size per worker", &c.EventQueueSize},
		{"eventworkers", "HOLDEM_EVENT_WORKERS", "Event publishing workers", &c.EventWorkers},
		{"rooms", "HOLDEM_ROOMS", "Rooms to simulate", &c.Rooms},
		{"seats", "HOLDEM_SEATS", "Players per simulated room", &c.Seats},
		{"hands", "HOLDEM_HANDS", "Hands per simulated room", &c.Hands},
		{"sb", "HOLDEM_SMALL_BLIND", "Small blind", &c.SmallBlind},
		{"bb", "HOLDEM_BIG_BLIND", "Big blind", &c.BigBlind},
		{"stack", "HOLDEM_STACK", "Starting stack", &c.StartingStack},
	}
}

// Load builds the configuration for a binary invoked with args (without the
// program name).
func Load(args []string) (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return load(args, wd, os.LookupEnv)
}

func load(args []string, workDir string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	// Process environment wins over .env files; the working directory file
	// wins over the data directory one.
	dotenv := make(map[string]string)
	if err := readDotEnv(filepath.Join(workDir, ".env"), dotenv); err != nil {
		return nil, err
	}
	env := func(k string) (string, bool) {
		if v, ok := lookup(k); ok {
			return v, true
		}
		v, ok := dotenv[k]
		return v, ok
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	if err := readDotEnv(filepath.Join(cfg.DataDir, ".env"), dotenv); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("holdem", flag.ContinueOnError)
	for _, b := range cfg.bindings() {
		switch p := b.ptr.(type) {
		case *string:
			fs.StringVar(p, b.flag, *p, b.usage)
		case *int:
			fs.IntVar(p, b.flag, *p, b.usage)
		case *int64:
			fs.Int64Var(p, b.flag, *p, b.usage)
		case *time.Duration:
			fs.DurationVar(p, b.flag, *p, b.usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "holdem.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readDotEnv merges the variables of path into dst without overriding keys
// already present. A missing file is not an error.
func readDotEnv(path string, dst map[string]string) error {
	vars, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	for k, v := range vars {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, b := range c.bindings() {
		v, ok := lookup(b.env)
		if !ok || v == "" {
			continue
		}
		var err error
		switch p := b.ptr.(type) {
		case *string:
			*p = v
		case *int:
			*p, err = strconv.Atoi(v)
		case *int64:
			*p, err = strconv.ParseInt(v, 10, 64)
		case *time.Duration:
			*p, err = time.ParseDuration(v)
		}
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", b.env, v, err)
		}
	}
	return nil
}

// Validate rejects settings the binaries cannot run with.
func (c *Config) Validate() error {
	if c.SmallBlind <= 0 || c.BigBlind <= 0 {
		return fmt.Errorf("blinds must be positive, got %d/%d", c.SmallBlind, c.BigBlind)
	}
	if c.SmallBlind > c.BigBlind {
		return fmt.Errorf("small blind %d exceeds big blind %d", c.SmallBlind, c.BigBlind)
	}
	if c.Seats < 2 || c.Seats > poker.MaxSeatsLimit {
		return fmt.Errorf("seats must be between 2 and %d, got %d", poker.MaxSeatsLimit, c.Seats)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive, got %v", c.RateWindow)
	}
	if c.TurnTimeout < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}
	if c.StartingStack <= 0 {
		return fmt.Errorf("starting stack must be positive, got %d", c.StartingStack)
	}
	if c.Rooms < 0 || c.Hands < 0 {
		return fmt.Errorf("rooms and hands must not be negative")
	}
	switch c.DBDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres driver requires a dsn")
		}
	default:
		return fmt.Errorf("unknown db driver %q", c.DBDriver)
	}
	if _, err := logging.ParseLevel(c.DebugLevel); err != nil {
		return err
	}
	return nil
}
