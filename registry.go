package aresmysql

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolFactory builds the pool for a settings name on first use.
type PoolFactory func() (*Pool, error)

// PoolRegistry maps settings names to lazily created pools. Pools are
// created exactly once per name and never evicted.
type PoolRegistry struct {
	mu    sync.Mutex
	pools map[string]*Pool
}

// NewPoolRegistry creates an empty pool registry. Construct it once at
// process start and share it by reference.
func NewPoolRegistry() *PoolRegistry {
	return &PoolRegistry{pools: make(map[string]*Pool)}
}

// GetOrCreate returns the pool for name, invoking factory on the first
// call only. The lock is held across the factory call so concurrent
// first requests for the same name can never build two pools.
func (r *PoolRegistry) GetOrCreate(name string, factory PoolFactory) (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pool, ok := r.pools[name]; ok {
		return pool, nil
	}

	pool, err := factory()
	if err != nil {
		return nil, err
	}
	r.pools[name] = pool
	return pool, nil
}

// Get returns the pool for name if it has been created.
func (r *PoolRegistry) Get(name string) (*Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, ok := r.pools[name]
	return pool, ok
}

// Names returns the names of all created pools, sorted.
func (r *PoolRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SessionRegistry tracks active sessions by id and owns the named
// Settings that resolve to pools. Sessions and pools have disjoint
// lifecycles: removing a session never touches its pool.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	settings map[string]Settings

	pools  *PoolRegistry
	logger *slog.Logger
}

// NewSessionRegistry creates a session registry backed by the given
// pool registry.
func NewSessionRegistry(pools *PoolRegistry, logger *slog.Logger) *SessionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		settings: make(map[string]Settings),
		pools:    pools,
		logger:   logger,
	}
}

// RegisterSettings makes a named configuration available to sessions.
// The pool itself is not built until the first session asks for it.
func (r *SessionRegistry) RegisterSettings(name string, settings Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[name] = settings
}

// Session returns the active session for id, creating and connecting
// one against the named settings if none exists. Idempotent per id:
// a second call with the same id returns the same session without
// borrowing another connection.
func (r *SessionRegistry) Session(ctx context.Context, id, settingsName string) (*Session, error) {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return s, nil
	}

	settings, ok := r.settings[settingsName]
	if !ok {
		r.mu.Unlock()
		return nil, &Error{
			Code:      CodeConnectionAcquisition,
			Message:   "no settings registered under " + settingsName,
			Op:        "Session",
			SessionID: id,
		}
	}

	s := &Session{
		id:           id,
		settingsName: settingsName,
		production:   settings.Production,
		registry:     r,
		logger:       r.logger.With("session", id),
	}
	r.sessions[id] = s
	r.mu.Unlock()

	if err := s.Connect(ctx); err != nil {
		r.remove(id)
		return nil, err
	}
	return s, nil
}

// Lookup returns the session for id or a REGISTRY_INCONSISTENCY error,
// which usually means a disconnect raced with the caller.
func (r *SessionRegistry) Lookup(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, &Error{
			Code:      CodeRegistryInconsistency,
			Message:   "session not registered",
			Op:        "Lookup",
			SessionID: id,
		}
	}
	return s, nil
}

// Active returns the number of registered sessions.
func (r *SessionRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// InstrumentWith registers a gauge exposing the live session count.
func (r *SessionRegistry) InstrumentWith(registry prometheus.Registerer) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "aresmysql_sessions_active",
		Help: "Number of active logical database sessions",
	}, func() float64 {
		return float64(r.Active())
	})
	if err := registry.Register(gauge); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}

func (r *SessionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// pool resolves the pool for a settings name, building it on first use.
func (r *SessionRegistry) pool(settingsName string) (*Pool, error) {
	r.mu.Lock()
	settings, ok := r.settings[settingsName]
	r.mu.Unlock()
	if !ok {
		return nil, &Error{
			Code:    CodeConnectionAcquisition,
			Message: "no settings registered under " + settingsName,
			Op:      "pool",
		}
	}
	return r.pools.GetOrCreate(settingsName, func() (*Pool, error) {
		return NewPool(settings)
	})
}

// NewSessionID generates a fresh session identifier for callers that
// do not carry a request-scoped id of their own.
func NewSessionID() string {
	return uuid.NewString()
}
