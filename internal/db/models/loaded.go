package models

import (
	"sync"

	"gorm.io/gorm"
)

// LoadedFunc runs once all models are loaded, e.g. to check a model a custom router depends on.
type LoadedFunc func(db *gorm.DB, reg *Registry) error

var (
	loadedMu sync.Mutex
	loaded   = map[string][]LoadedFunc{}
)

// OnLoaded registers fn to run for entity after all models are loaded.
func OnLoaded(entity string, fn LoadedFunc) {
	loadedMu.Lock()
	defer loadedMu.Unlock()

	loaded[entity] = append(loaded[entity], fn)
}

// RunLoaded runs the registered post-load functions of every model in reg.
func RunLoaded(db *gorm.DB, reg *Registry) error {
	loadedMu.Lock()
	hooks := make(map[string][]LoadedFunc, len(loaded))
	for entity, fns := range loaded {
		hooks[entity] = append([]LoadedFunc(nil), fns...)
	}
	loadedMu.Unlock()

	return reg.Each(func(m *Model) error {
		for _, fn := range hooks[m.Name] {
			if err := fn(db, reg); err != nil {
				return err
			}
		}

		return nil
	})
}

// ResetLoaded removes all post-load functions.
func ResetLoaded() {
	loadedMu.Lock()
	defer loadedMu.Unlock()

	loaded = map[string][]LoadedFunc{}
}
