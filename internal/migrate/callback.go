package migrate

import (
	"context"
	"database/sql"
	"sync"

	"github.com/evolvedb/evolve/internal/everr"
)

// DBTX is the surface a callback gets: the unit's active transaction on
// transactional dialects, the raw connection otherwise.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CallbackFunc is an explicitly-registered migration handler. A returned
// error aborts the unit's transaction exactly like a failed SQL statement.
type CallbackFunc func(ctx context.Context, db DBTX) error

// Registry resolves callback names to handlers. Handlers are registered by
// the host program before the runner executes; there is no dynamic loading.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]CallbackFunc
}

// NewRegistry returns an empty callback registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]CallbackFunc)}
}

// Register binds a handler to a name. Re-registering a name replaces the
// previous handler.
func (r *Registry) Register(name string, fn CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup resolves a handler by name.
func (r *Registry) Lookup(name string) (CallbackFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	if !ok {
		return nil, everr.Newf(everr.ErrUnknownCallback, "callback %q is not registered", name)
	}
	return fn, nil
}
