package aresmysql

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/uptrace/bun"
)

// Session is one logical unit of work: it borrows a single physical
// connection from its pool and tracks at most one named transaction.
//
// A session's operations are not internally locked. Callers must
// serialize operations on the same session; different sessions are
// fully independent.
type Session struct {
	id           string
	settingsName string
	production   bool

	registry *SessionRegistry
	logger   *slog.Logger

	pool *Pool
	conn *bun.Conn

	tx     *bun.Tx
	txName string
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SettingsName returns the name of the settings the session resolves
// its pool from.
func (s *Session) SettingsName() string { return s.settingsName }

// Connected reports whether the session currently holds a physical
// connection.
func (s *Session) Connected() bool { return s.conn != nil }

// TransactionName returns the active transaction name, or "" when the
// session is idle.
func (s *Session) TransactionName() string { return s.txName }

// InTransaction reports whether a transaction is active.
func (s *Session) InTransaction() bool { return s.tx != nil }

// Connect borrows a physical connection from the pool. Idempotent: a
// connected session returns immediately with the same connection.
func (s *Session) Connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	// The pool is resolved once; reconnecting after a disconnect or
	// eviction reuses it.
	if s.pool == nil {
		pool, err := s.registry.pool(s.settingsName)
		if err != nil {
			return err
		}
		s.pool = pool
	}

	conn, err := s.pool.acquire(ctx)
	if err != nil {
		return err
	}

	s.conn = &conn
	s.logger.Debug("session connected", "settings", s.settingsName)
	return nil
}

// Disconnect returns the borrowed connection to the pool and removes
// the session from the registry. The registry entry is removed even if
// the release fails: the handle is no longer trustworthy either way,
// so a phantom registration would only mask the problem. Release
// failures are logged, never raised.
func (s *Session) Disconnect(ctx context.Context) {
	defer s.registry.remove(s.id)

	if s.conn == nil {
		return
	}

	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("rollback on disconnect failed", "tx", s.txName, "error", err)
		}
		s.tx = nil
		s.txName = ""
	}

	if err := s.conn.Close(); err != nil {
		s.logger.Warn("connection release failed", "error", err)
	}
	s.conn = nil
	s.logger.Debug("session disconnected")
}

// StartTransaction begins a transaction named name. If a transaction
// is already active — under any name — the call is ignored: nested or
// duplicate starts neither stack nor overwrite the stored name.
func (s *Session) StartTransaction(ctx context.Context, name string) error {
	if s.tx != nil {
		s.logger.Debug("transaction already active, start ignored",
			"active", s.txName, "requested", name)
		return nil
	}

	if err := s.Connect(ctx); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return &Error{
			Code:      CodeTransactionStart,
			Message:   "cannot begin transaction " + name,
			Op:        "StartTransaction",
			SessionID: s.id,
			Cause:     err,
		}
	}

	s.tx = &tx
	s.txName = name
	s.logger.Debug("transaction started", "tx", name)
	return nil
}

// Commit commits the active transaction if name matches the one it was
// started under; otherwise it is silently ignored. On commit failure
// the transaction name stays set — the underlying transaction may
// still be open, and whether to retry or roll back is the caller's
// decision.
func (s *Session) Commit(ctx context.Context, name string) error {
	if s.tx == nil || s.txName != name {
		return nil
	}

	if err := s.tx.Commit(); err != nil {
		return &Error{
			Code:      CodeTransactionCommit,
			Message:   "cannot commit transaction " + name,
			Op:        "Commit",
			SessionID: s.id,
			Cause:     err,
		}
	}

	s.tx = nil
	s.txName = ""
	s.logger.Debug("transaction committed", "tx", name)
	return nil
}

// Rollback rolls back the active transaction if name matches;
// otherwise it is silently ignored. Once the rollback is issued the
// transaction state clears unconditionally.
func (s *Session) Rollback(ctx context.Context, name string) error {
	if s.tx == nil || s.txName != name {
		return nil
	}

	err := s.tx.Rollback()
	s.tx = nil
	s.txName = ""
	if err != nil && err != sql.ErrTxDone {
		s.logger.Warn("rollback reported error", "tx", name, "error", err)
	}
	s.logger.Debug("transaction rolled back", "tx", name)
	return nil
}

// queryer is the execution target for statements: the active
// transaction when one is open, the borrowed connection otherwise.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Session) queryer() queryer {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// evict drops the session after its connection proved dead. This is
// the end-of-life path: the driver has no close event to observe, so
// connection-class errors surfacing from queries trigger it instead.
func (s *Session) evict() {
	s.registry.remove(s.id)
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.tx = nil
	s.txName = ""
	s.logger.Warn("session evicted after connection failure")
}
