package models

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/files"
)

// Registry maps entity names to compiled models.
type Registry struct {
	mu      sync.RWMutex
	models  map[string]*Model
	byTable map[string]*Model
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models:  map[string]*Model{},
		byTable: map[string]*Model{},
	}
}

// Add registers m. Registering an entity twice fails with ErrDuplicateModel.
func (r *Registry) Add(m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[m.Name]; ok {
		return errors.Wrap(ErrDuplicateModel, m.Name)
	}

	if other, ok := r.byTable[m.Table]; ok {
		return errors.Wrapf(ErrDuplicateModel, "%s and %s share table %s", other.Name, m.Name, m.Table)
	}

	r.models[m.Name] = m
	r.index(m)

	return nil
}

// index maps the table and, for schema qualified tables, the bare table name,
// which is what gorm keeps in Statement.Table.
func (r *Registry) index(m *Model) {
	r.byTable[m.Table] = m

	if i := strings.LastIndex(m.Table, "."); i >= 0 {
		r.byTable[m.Table[i+1:]] = m
	}
}

// Replace registers m, replacing a model of the same entity.
func (r *Registry) Replace(m *Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.models[m.Name]; ok {
		for table, other := range r.byTable {
			if other == old {
				delete(r.byTable, table)
			}
		}
	}

	r.models[m.Name] = m
	r.index(m)
}

// Get returns the model of an entity.
func (r *Registry) Get(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]

	return m, ok
}

// ByTable returns the model mapped to a table.
func (r *Registry) ByTable(table string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byTable[table]

	return m, ok
}

// Names returns the sorted entity names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.models)
}

// Each calls fn for every model in name order and stops at the first error.
func (r *Registry) Each(fn func(m *Model) error) error {
	for _, name := range r.Names() {
		m, ok := r.Get(name)
		if !ok {
			continue
		}

		if err := fn(m); err != nil {
			return err
		}
	}

	return nil
}

// CompileFile loads and compiles one model file for db.
func CompileFile(db *gorm.DB, file string) (*Model, error) {
	def, err := Load(file)
	if err != nil {
		return nil, err
	}

	return Compile(def, db.Dialector.Name(), db.NamingStrategy)
}

// LoadDir compiles every model file below dir into a new registry.
func LoadDir(db *gorm.DB, dir string) (*Registry, error) {
	reg := NewRegistry()

	list, err := files.YAMLFiles(dir)
	if err != nil {
		return nil, err
	}

	for _, file := range list {
		m, errCompile := CompileFile(db, file)
		if errCompile != nil {
			return nil, errCompile
		}

		if err = reg.Add(m); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Sync creates or alters the table of m. Columns are never dropped.
func Sync(db *gorm.DB, m *Model) error {
	if err := db.Table(m.Table).AutoMigrate(m.New()); err != nil {
		return errors.Wrapf(err, "failed to sync model %s", m.Name)
	}

	return nil
}

// SyncAll synchronizes every model of reg.
func SyncAll(db *gorm.DB, reg *Registry) error {
	return reg.Each(func(m *Model) error {
		return Sync(db, m)
	})
}
