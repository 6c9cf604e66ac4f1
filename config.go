// Package aresmysql provides the MySQL datasource layer: connection
// pooling, logical sessions, named transactions, and query execution
// with configurable observability.
package aresmysql

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Settings identifies one connection target and configures its pool.
// A Settings value is resolved into a Pool exactly once per registered
// name; it is not consulted again afterwards.
type Settings struct {
	// Connection target
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// Driver options
	MultiStatements bool              // allow multi-statement scripts
	ParseTime       bool              // scan DATE/DATETIME into time.Time
	Params          map[string]string // extra driver parameters

	// Pool settings
	MaxOpenConns    int           // Max open connections (default: 25)
	MaxIdleConns    int           // Max idle connections (default: 5)
	ConnMaxLifetime time.Duration // Max connection lifetime (default: 5m)
	ConnMaxIdleTime time.Duration // Max idle time (default: 1m)

	// Timeouts
	DialTimeout  time.Duration // Connection dial timeout (default: 5s)
	ReadTimeout  time.Duration // Read timeout (default: 30s)
	WriteTimeout time.Duration // Write timeout (default: 30s)

	// Observability (all optional)
	Logger          *slog.Logger          // Structured logger
	LogQueries      bool                  // Log all queries
	LogSlowQueries  time.Duration         // Log queries slower than this (0 = disabled)
	MetricsRegistry prometheus.Registerer // Prometheus registry for metrics
	Tracer          trace.Tracer          // OpenTelemetry tracer

	// Production suppresses the diagnostic Query/Params fields on
	// QueryResponse so literals never reach logs or callers in prod.
	Production bool
}

// DefaultSettings returns sensible defaults for the given target.
func DefaultSettings(host string, port int, user, password, database string) Settings {
	return Settings{
		Host:            host,
		Port:            port,
		User:            user,
		Password:        password,
		Database:        database,
		ParseTime:       true,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
	}
}

// applyDefaults fills in zero values with defaults
func (s *Settings) applyDefaults() {
	if s.Port == 0 {
		s.Port = 3306
	}
	if s.MaxOpenConns == 0 {
		s.MaxOpenConns = 25
	}
	if s.MaxIdleConns == 0 {
		s.MaxIdleConns = 5
	}
	if s.ConnMaxLifetime == 0 {
		s.ConnMaxLifetime = 5 * time.Minute
	}
	if s.ConnMaxIdleTime == 0 {
		s.ConnMaxIdleTime = 1 * time.Minute
	}
	if s.DialTimeout == 0 {
		s.DialTimeout = 5 * time.Second
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

// driverConfig translates the settings into a go-sql-driver config.
func (s Settings) driverConfig() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = s.User
	cfg.Passwd = s.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", s.Host, s.Port)
	cfg.DBName = s.Database
	cfg.MultiStatements = s.MultiStatements
	cfg.ParseTime = s.ParseTime
	cfg.Timeout = s.DialTimeout
	cfg.ReadTimeout = s.ReadTimeout
	cfg.WriteTimeout = s.WriteTimeout
	if len(s.Params) > 0 {
		cfg.Params = make(map[string]string, len(s.Params))
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	return cfg
}

// WithLogger enables query logging
func (s Settings) WithLogger(logger *slog.Logger) Settings {
	s.Logger = logger
	s.LogQueries = true
	return s
}

// WithSlowQueryLog logs queries slower than the threshold
func (s Settings) WithSlowQueryLog(threshold time.Duration) Settings {
	s.LogSlowQueries = threshold
	return s
}

// WithMetrics enables Prometheus metrics
func (s Settings) WithMetrics(registry prometheus.Registerer) Settings {
	s.MetricsRegistry = registry
	return s
}

// WithTracing enables OpenTelemetry tracing
func (s Settings) WithTracing(tracer trace.Tracer) Settings {
	s.Tracer = tracer
	return s
}

// WithMultiStatements allows multi-statement scripts on this pool's
// connections. Generated CRUD scripts rely on this.
func (s Settings) WithMultiStatements() Settings {
	s.MultiStatements = true
	return s
}

// WithProduction marks the settings as production, suppressing query
// text and parameters on responses.
func (s Settings) WithProduction() Settings {
	s.Production = true
	return s
}
