package aresmysql

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/rstefani87info/ares-datasource-mysql/hooks"
)

// Field describes one column of a result set, passed through from the
// driver uninterpreted.
type Field struct {
	Name         string
	DatabaseType string
}

// QueryResponse describes the outcome of one statement. Query and
// Params are populated only outside production mode; in production
// they stay empty so literals never leak into logs.
type QueryResponse struct {
	ExecutionStartedAt  time.Time
	ExecutionTimeMillis int64

	Results      []map[string]any
	Fields       []Field
	RowsAffected int64
	LastInsertID int64

	Err    error
	Query  string
	Params []any
}

// Future is the handle for an in-flight statement. It resolves exactly
// once, when the statement completes, and supports any number of
// concurrent waiters.
type Future struct {
	once sync.Once
	done chan struct{}

	resp *QueryResponse
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(resp *QueryResponse, err error) {
	f.once.Do(func() {
		f.resp = resp
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the statement has completed.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the statement completes or ctx expires. It is a
// genuine channel wait; nothing in this package polls. When ctx
// expires first, the returned response carries only Err — the
// statement is still running and its outcome is abandoned.
func (f *Future) Wait(ctx context.Context) (*QueryResponse, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		werr := wrapError(ctx.Err(), "Wait")
		return &QueryResponse{Err: werr}, werr
	}
}

// Resolved reports whether the statement has completed, without
// blocking.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// ExecuteAsync issues one parameterized statement and returns a Future
// for its completion. The session must not be used for anything else
// until the future resolves: a session serializes its own work.
func (s *Session) ExecuteAsync(ctx context.Context, query string, params ...any) *Future {
	f := newFuture()
	go func() {
		f.resolve(s.run(ctx, query, params))
	}()
	return f
}

// Execute issues one parameterized statement and blocks until it
// completes or ctx expires. On failure the returned response is still
// populated, with Err carrying the same error that is returned.
func (s *Session) Execute(ctx context.Context, query string, params ...any) (*QueryResponse, error) {
	return s.ExecuteAsync(ctx, query, params...).Wait(ctx)
}

// run executes a single statement on the session's connection (or its
// active transaction) and shapes the response. Statements on the same
// session execute in issue order; this layer never retries and never
// reinterprets driver errors.
func (s *Session) run(ctx context.Context, query string, params []any) (*QueryResponse, error) {
	resp := &QueryResponse{ExecutionStartedAt: time.Now()}
	if !s.production {
		resp.Query = query
		resp.Params = params
	}

	if err := s.Connect(ctx); err != nil {
		resp.Err = err
		resp.ExecutionTimeMillis = time.Since(resp.ExecutionStartedAt).Milliseconds()
		return resp, err
	}

	var err error
	if hooks.ReturnsRows(query) {
		var rows *sql.Rows
		rows, err = s.queryer().QueryContext(ctx, query, params...)
		if err == nil {
			resp.Fields, resp.Results, err = scanRows(rows)
		}
	} else {
		var result sql.Result
		result, err = s.queryer().ExecContext(ctx, query, params...)
		if err == nil {
			resp.RowsAffected, _ = result.RowsAffected()
			resp.LastInsertID, _ = result.LastInsertId()
		}
	}
	resp.ExecutionTimeMillis = time.Since(resp.ExecutionStartedAt).Milliseconds()

	if err != nil {
		werr := wrapError(err, "Execute")
		resp.Err = werr
		if IsConnection(werr) {
			s.evict()
		}
		return resp, werr
	}
	return resp, nil
}

// scanRows drains a result set into generic rows plus column metadata.
// Raw []byte cells become strings, matching what callers of a text
// protocol expect.
func scanRows(rows *sql.Rows) ([]Field, []map[string]any, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	fields := make([]Field, len(types))
	for i, ct := range types {
		fields[i] = Field{Name: ct.Name(), DatabaseType: ct.DatabaseTypeName()}
	}

	var results []map[string]any
	values := make([]any, len(types))
	scans := make([]any, len(types))
	for i := range values {
		scans[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scans...); err != nil {
			return fields, results, err
		}
		row := make(map[string]any, len(types))
		for i, field := range fields {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[field.Name] = v
		}
		results = append(results, row)
	}
	return fields, results, rows.Err()
}
