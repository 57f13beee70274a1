// Package hooks dispatches record lifecycle events of compiled models to subscribers.
//
// afterCreate, afterUpdate, afterSave and afterDestroy run inside gorm's create, update
// and delete callback chains, before the statement transaction is committed. A
// subscriber error aborts the operation. afterUpsert is emitted by the record helper.
package hooks

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/db/models"
)

// Hook is a lifecycle event name.
type Hook string

// Supported hooks.
const (
	AfterCreate  Hook = "afterCreate"
	AfterDestroy Hook = "afterDestroy"
	AfterUpdate  Hook = "afterUpdate"
	AfterSave    Hook = "afterSave"
	AfterUpsert  Hook = "afterUpsert"
)

const callbackPrefix = "restcore:"

// Func receives a copy of the record and the running transaction.
type Func func(record map[string]any, tx *gorm.DB) error

// Valid reports whether h is a supported hook.
func (h Hook) Valid() bool {
	switch h {
	case AfterCreate, AfterDestroy, AfterUpdate, AfterSave, AfterUpsert:
		return true
	default:
		return false
	}
}

// Bus holds subscriptions per entity and hook.
type Bus struct {
	mu       sync.RWMutex
	registry *models.Registry
	subs     map[string]map[Hook][]Func
}

// NewBus returns a bus resolving gorm statement tables through registry.
func NewBus(registry *models.Registry) *Bus {
	return &Bus{
		registry: registry,
		subs:     map[string]map[Hook][]Func{},
	}
}

// Subscribe returns the registration function of hook for entity, or nil when the hook
// is unknown.
func (b *Bus) Subscribe(entity, hook string) func(fn Func) {
	h := Hook(hook)
	if !h.Valid() {
		return nil
	}

	return func(fn Func) {
		if fn == nil {
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()

		if b.subs[entity] == nil {
			b.subs[entity] = map[Hook][]Func{}
		}

		b.subs[entity][h] = append(b.subs[entity][h], fn)
	}
}

// Has reports whether hook has subscribers for entity.
func (b *Bus) Has(entity string, hook Hook) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[entity][hook]) > 0
}

// Emit calls the subscribers of hook in subscription order, each with its own copy of
// record. The first error is returned.
func (b *Bus) Emit(tx *gorm.DB, entity string, hook Hook, record map[string]any) error {
	b.mu.RLock()
	fns := append([]Func(nil), b.subs[entity][hook]...)
	b.mu.RUnlock()

	for _, fn := range fns {
		copied, _ := Clone(record).(map[string]any) //nolint:errcheck
		if err := fn(copied, tx); err != nil {
			return errors.Wrapf(err, "%s %s hook", entity, hook)
		}
	}

	return nil
}

// Register installs the bus on the create, update and delete callback chains of db.
func (b *Bus) Register(db *gorm.DB) error {
	cb := db.Callback()

	err := cb.Create().After("gorm:after_create").Before("gorm:commit_or_rollback_transaction").
		Register(callbackPrefix+"after_create", b.callback(AfterCreate, AfterSave))
	if err != nil {
		return errors.Wrap(err, "failed to register create hook")
	}

	err = cb.Update().After("gorm:after_update").Before("gorm:commit_or_rollback_transaction").
		Register(callbackPrefix+"after_update", b.callback(AfterUpdate, AfterSave))
	if err != nil {
		return errors.Wrap(err, "failed to register update hook")
	}

	err = cb.Delete().After("gorm:after_delete").Before("gorm:commit_or_rollback_transaction").
		Register(callbackPrefix+"after_delete", b.callback(AfterDestroy))
	if err != nil {
		return errors.Wrap(err, "failed to register delete hook")
	}

	return nil
}

func (b *Bus) callback(hooks ...Hook) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Error != nil || db.Statement.Table == "" || db.Statement.SkipHooks {
			return
		}

		m, ok := b.registry.ByTable(db.Statement.Table)
		if !ok {
			return
		}

		pending := false
		for _, h := range hooks {
			pending = pending || b.Has(m.Name, h)
		}

		if !pending {
			return
		}

		tx := db.Session(&gorm.Session{NewDB: true})

		for _, record := range records(m, db.Statement.ReflectValue) {
			for _, h := range hooks {
				log.Debug().Str("model", m.Name).Str("hook", string(h)).Msg("dispatching hook")

				if err := b.Emit(tx, m.Name, h, record); err != nil {
					_ = db.AddError(err) //nolint:errcheck

					return
				}
			}
		}
	}
}

// records renders the statement value: a record, a record slice or an update map.
func records(m *models.Model, v reflect.Value) []map[string]any {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	if !v.IsValid() {
		return nil
	}

	switch v.Kind() { //nolint:exhaustive
	case reflect.Struct:
		if v.Type() != m.Type || !v.CanAddr() {
			return nil
		}

		return []map[string]any{m.ToMap(v.Addr().Interface(), false)}
	case reflect.Slice, reflect.Array:
		out := make([]map[string]any, 0, v.Len())
		for i := range v.Len() {
			out = append(out, records(m, v.Index(i))...)
		}

		return out
	case reflect.Map:
		if values, ok := v.Interface().(map[string]any); ok {
			return []map[string]any{values}
		}
	}

	return nil
}

// Clone returns a deep copy of JSON-like values: maps, slices and scalars.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}

		return out
	default:
		return v
	}
}
