package decision

import (
	"context"
	"log/slog"
	"sync"

	"github.com/icastellano/oppanel/internal/model"
)

// Persister is the durable side of an overlay. *Store satisfies it.
type Persister interface {
	LoadScope(ctx context.Context, scope string) (map[string]model.Decision, error)
	Put(ctx context.Context, scope, key string, d model.Decision) error
	Delete(ctx context.Context, scope, key string) error
}

// Overlay is the in-memory mirror of one scope's annotations. Reads hit
// the mirror; every mutation writes through to the persister.
type Overlay struct {
	mu    sync.RWMutex
	marks map[string]model.Decision
	store Persister
	scope string
}

// NewOverlay loads the annotations for scope into memory. A nil persister
// yields a purely in-memory overlay. An unreadable store is treated as an
// empty overlay, never an error: annotations are an adjunct and must not
// block the dashboard.
func NewOverlay(ctx context.Context, store Persister, scope string) *Overlay {
	o := &Overlay{
		marks: make(map[string]model.Decision),
		store: store,
		scope: scope,
	}
	if store == nil {
		return o
	}

	marks, err := store.LoadScope(ctx, scope)
	if err != nil {
		slog.Warn("Failed to load decision overlay, starting empty",
			"scope", scope, "error", err)
		return o
	}
	o.marks = marks
	return o
}

// Scope returns the view identity this overlay is bound to.
func (o *Overlay) Scope() string {
	return o.scope
}

// Get returns the annotation for a record key, if any.
func (o *Overlay) Get(key string) (model.Decision, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	d, ok := o.marks[key]
	return d, ok
}

// Set marks a record. Marking a record with its current value removes the
// mark (second click unmarks). The persister write failure is logged, not
// returned: the in-memory state stays authoritative for this session.
func (o *Overlay) Set(ctx context.Context, key string, d model.Decision) {
	if !d.Valid() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	if current, ok := o.marks[key]; ok && current == d {
		delete(o.marks, key)
		o.persistDelete(ctx, key)
		return
	}
	o.marks[key] = d
	o.persistPut(ctx, key, d)
}

// Clear removes a record's annotation regardless of its value.
func (o *Overlay) Clear(ctx context.Context, key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.marks[key]; !ok {
		return
	}
	delete(o.marks, key)
	o.persistDelete(ctx, key)
}

// All returns a copy of every annotation in this scope.
func (o *Overlay) All() map[string]model.Decision {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]model.Decision, len(o.marks))
	for k, v := range o.marks {
		out[k] = v
	}
	return out
}

// Len returns the number of marked records.
func (o *Overlay) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.marks)
}

func (o *Overlay) persistPut(ctx context.Context, key string, d model.Decision) {
	if o.store == nil {
		return
	}
	if err := o.store.Put(ctx, o.scope, key, d); err != nil {
		slog.Warn("Failed to persist decision", "scope", o.scope, "key", key, "error", err)
	}
}

func (o *Overlay) persistDelete(ctx context.Context, key string) {
	if o.store == nil {
		return
	}
	if err := o.store.Delete(ctx, o.scope, key); err != nil {
		slog.Warn("Failed to remove persisted decision", "scope", o.scope, "key", key, "error", err)
	}
}
