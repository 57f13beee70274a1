package daemon

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/restcore/restcore/internal/core"
)

// watchModels reloads model files written below dir until the watcher is closed.
func watchModels(dir string, c *core.Core) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}

	if err = watcher.Add(dir); err != nil {
		_ = watcher.Close()

		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}

	log.Warn().Str("dir", dir).Msg("dev mode: watching model files")

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !isModelEvent(event) {
					continue
				}

				if _, errReload := c.Reload(event.Name); errReload != nil {
					log.Error().Err(errReload).Str("file", event.Name).Msg("model reload failed")
				}
			case errWatch, ok := <-watcher.Errors:
				if !ok {
					return
				}

				log.Error().Err(errWatch).Msg("model watcher error")
			}
		}
	}()

	return watcher, nil
}

func isModelEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	switch filepath.Ext(event.Name) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
