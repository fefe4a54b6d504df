package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "handoff/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Log      Log
	Monitor  Monitor
	Schedule Schedule
	Finalize Finalize
	State    State
	Audit    Audit
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Badger   BadgerConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	AdminToken    string
	JWTSigningKey string
	ShutdownGrace time.Duration
}

type Log struct {
	Level  string
	Format string
}

// Monitor tunes the trend monitor.
type Monitor struct {
	Enabled        bool
	Interval       time.Duration
	HistorySize    int
	TrendWindow    int
	SlopeThreshold float64
	RecentRollback time.Duration
}

// Schedule configures the rollout plan and auto-advance.
type Schedule struct {
	PlanFile            string
	AutoAdvance         bool
	DayDuration         time.Duration
	AutoAdvanceInterval time.Duration
}

type Finalize struct {
	Sustain   time.Duration
	Threshold int
}

// State selects the persisted state backend: memory, redis or badger.
type State struct {
	Backend string
}

// Audit selects the audit sink: memory, postgres or kafka.
type Audit struct {
	Sink        string
	AsyncBuffer int
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	Topic      string
	Partitions int32
	Replicas   int16
}

type BadgerConfig struct {
	Path           string
	SyncWrites     bool
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// FromEnv builds the configuration from HANDOFF_* environment variables.
func FromEnv() (Config, error) {
	r := &reader{}
	cfg := Config{
		Server: Server{
			Addr:          r.str("HANDOFF_ADDR", ":8080"),
			AdminToken:    r.str("HANDOFF_ADMIN_TOKEN", ""),
			JWTSigningKey: r.str("HANDOFF_JWT_SIGNING_KEY", ""),
			ShutdownGrace: r.duration("HANDOFF_SHUTDOWN_GRACE", 10*time.Second),
		},
		Log: Log{
			Level:  r.str("HANDOFF_LOG_LEVEL", "info"),
			Format: r.str("HANDOFF_LOG_FORMAT", "json"),
		},
		Monitor: Monitor{
			Enabled:        r.boolean("HANDOFF_MONITOR_ENABLED", true),
			Interval:       r.duration("HANDOFF_MONITOR_INTERVAL", 5*time.Second),
			HistorySize:    r.integer("HANDOFF_MONITOR_HISTORY", 60),
			TrendWindow:    r.integer("HANDOFF_MONITOR_TREND_WINDOW", 5),
			SlopeThreshold: r.float("HANDOFF_MONITOR_SLOPE", 2),
			RecentRollback: r.duration("HANDOFF_RECENT_ROLLBACK_WINDOW", 5*time.Minute),
		},
		Schedule: Schedule{
			PlanFile:            r.str("HANDOFF_PLAN_FILE", ""),
			AutoAdvance:         r.boolean("HANDOFF_AUTO_ADVANCE", false),
			DayDuration:         r.duration("HANDOFF_DAY_DURATION", 24*time.Hour),
			AutoAdvanceInterval: r.duration("HANDOFF_AUTO_ADVANCE_INTERVAL", time.Minute),
		},
		Finalize: Finalize{
			Sustain:   r.duration("HANDOFF_FINALIZE_SUSTAIN", 10*time.Minute),
			Threshold: r.integer("HANDOFF_FINALIZE_THRESHOLD", 90),
		},
		State: State{
			Backend: r.str("HANDOFF_STATE_BACKEND", "memory"),
		},
		Audit: Audit{
			Sink:        r.str("HANDOFF_AUDIT_SINK", "memory"),
			AsyncBuffer: r.integer("HANDOFF_AUDIT_BUFFER", 256),
		},
		Redis: RedisConfig{
			URL:          r.str("HANDOFF_REDIS_URL", ""),
			PoolSize:     r.integer("HANDOFF_REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("HANDOFF_REDIS_MIN_IDLE", 2),
			DialTimeout:  r.duration("HANDOFF_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("HANDOFF_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("HANDOFF_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             r.str("HANDOFF_POSTGRES_DSN", ""),
			MaxOpenConns:    r.integer("HANDOFF_POSTGRES_MAX_OPEN", 10),
			MaxIdleConns:    r.integer("HANDOFF_POSTGRES_MAX_IDLE", 5),
			ConnMaxLifetime: r.duration("HANDOFF_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:    r.list("HANDOFF_KAFKA_BROKERS"),
			Topic:      r.str("HANDOFF_KAFKA_TOPIC", "handoff.audit"),
			Partitions: int32(r.integer("HANDOFF_KAFKA_PARTITIONS", 3)),
			Replicas:   int16(r.integer("HANDOFF_KAFKA_REPLICAS", 1)),
		},
		Badger: BadgerConfig{
			Path:           r.str("HANDOFF_BADGER_PATH", ""),
			SyncWrites:     r.boolean("HANDOFF_BADGER_SYNC", true),
			GCInterval:     r.duration("HANDOFF_BADGER_GC_INTERVAL", 5*time.Minute),
			GCDiscardRatio: r.float("HANDOFF_BADGER_GC_RATIO", 0.5),
		},
	}
	if len(r.errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(r.errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []string
	switch c.State.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, "HANDOFF_REDIS_URL is required for the redis state backend")
		}
	case "badger":
		if c.Badger.Path == "" {
			errs = append(errs, "HANDOFF_BADGER_PATH is required for the badger state backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown state backend %q", c.State.Backend))
	}
	switch c.Audit.Sink {
	case "memory":
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, "HANDOFF_POSTGRES_DSN is required for the postgres audit sink")
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "HANDOFF_KAFKA_BROKERS is required for the kafka audit sink")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown audit sink %q", c.Audit.Sink))
	}
	if c.Monitor.Interval <= 0 {
		errs = append(errs, "monitor interval must be positive")
	}
	if c.Finalize.Threshold < 0 || c.Finalize.Threshold > 100 {
		errs = append(errs, "finalize threshold must be within 0..100")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

type reader struct {
	errs []string
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) list(key string) []string {
	return platformstrings.SplitList(os.Getenv(key), ",")
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return f
}

func (r *reader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", key, err))
		return def
	}
	return b
}
