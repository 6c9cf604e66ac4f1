package aresmysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/rstefani87info/ares-datasource-mysql/hooks"
)

// Pool owns the physical connections for one Settings target. It is
// created at most once per registered settings name and lives for the
// rest of the process; sessions borrow single connections from it.
type Pool struct {
	*bun.DB
	settings Settings
}

// NewPool creates a pool for the given settings and verifies it can
// reach the server.
func NewPool(settings Settings) (*Pool, error) {
	settings.applyDefaults()

	if settings.Host == "" || settings.Database == "" {
		return nil, &Error{
			Code:    CodeConnectionAcquisition,
			Message: "host and database are required",
			Op:      "NewPool",
		}
	}

	connector, err := mysql.NewConnector(settings.driverConfig())
	if err != nil {
		return nil, &Error{
			Code:    CodeConnectionAcquisition,
			Message: "invalid driver configuration",
			Op:      "NewPool",
			Cause:   err,
		}
	}

	pool := NewPoolFromDB(sql.OpenDB(connector), settings)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), settings.DialTimeout)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		return nil, &Error{
			Code:    CodeConnectionAcquisition,
			Message: "failed to connect to database",
			Op:      "NewPool",
			Cause:   err,
		}
	}

	return pool, nil
}

// NewPoolFromDB wraps an already-open *sql.DB. Used by NewPool and by
// tests that substitute a mock driver.
func NewPoolFromDB(sqlDB *sql.DB, settings Settings) *Pool {
	settings.applyDefaults()

	sqlDB.SetMaxOpenConns(settings.MaxOpenConns)
	sqlDB.SetMaxIdleConns(settings.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(settings.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(settings.ConnMaxIdleTime)

	bunDB := bun.NewDB(sqlDB, mysqldialect.New())

	if settings.Logger != nil && (settings.LogQueries || settings.LogSlowQueries > 0) {
		bunDB.AddQueryHook(hooks.NewLoggerHook(settings.Logger, settings.LogQueries, settings.LogSlowQueries))
	}
	if settings.MetricsRegistry != nil {
		if hook, err := hooks.NewMetricsHook(settings.MetricsRegistry); err == nil {
			bunDB.AddQueryHook(hook)
		} else if settings.Logger != nil {
			settings.Logger.Warn("metrics hook disabled", "error", err)
		}
	}
	if settings.Tracer != nil {
		bunDB.AddQueryHook(hooks.NewTracingHook(settings.Tracer))
	}

	return &Pool{
		DB:       bunDB,
		settings: settings,
	}
}

// Close closes the pool and all of its connections. Registries never
// call this; it exists for process shutdown.
func (p *Pool) Close() error {
	return p.DB.Close()
}

// Ping verifies the database is reachable
func (p *Pool) Ping(ctx context.Context) error {
	if err := p.PingContext(ctx); err != nil {
		return wrapError(err, "Ping")
	}
	return nil
}

// Stats returns connection pool statistics
func (p *Pool) Stats() sql.DBStats {
	return p.DB.DB.Stats()
}

// Settings returns the settings the pool was built from
func (p *Pool) Settings() Settings {
	return p.settings
}

// acquire borrows one physical connection. The caller owns it
// exclusively until it is closed back into the pool.
func (p *Pool) acquire(ctx context.Context) (bun.Conn, error) {
	conn, err := p.DB.Conn(ctx)
	if err != nil {
		return bun.Conn{}, &Error{
			Code:    CodeConnectionAcquisition,
			Message: fmt.Sprintf("cannot borrow connection for %q", p.settings.Database),
			Op:      "acquire",
			Cause:   err,
		}
	}
	return conn, nil
}
