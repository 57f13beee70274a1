// Package daemon wires configuration, database, bootstrap and web server into the
// running service.
package daemon

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/core"
	"github.com/restcore/restcore/internal/db"
	"github.com/restcore/restcore/internal/db/models"
	"github.com/restcore/restcore/internal/web"
)

// ErrNilConfig is returned by New without a configuration.
var ErrNilConfig = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	core       *core.Core
	webService *web.Service
	watcher    *fsnotify.Watcher
}

// Start serves http until a shutdown signal is received. In dev mode model files
// are watched and reloaded.
func (d *Daemon) Start() error {
	if d.cfg.DevMode {
		w, err := watchModels(d.cfg.Paths.Models, d.core)
		if err != nil {
			return err
		}

		d.watcher = w
	}

	go d.webService.WaitShutdown()

	if err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port)); err != nil {
		return err //nolint:wrapcheck
	}

	return d.Close()
}

// Close releases the watcher and the database connection.
func (d *Daemon) Close() error {
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close model watcher")
		}
	}

	return db.Close(d.db)
}

// Core returns the bootstrapped core.
func (d *Daemon) Core() *core.Core {
	return d.core
}

// Web returns the web service.
func (d *Daemon) Web() *web.Service {
	return d.webService
}

// New connects the database, bootstraps the models and routes and seeds empty tables.
func New(cfg *config.Config, services ...core.Service) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	webService := web.New(cfg)

	c, err := core.Init(webService.App, conn, core.Options{
		Config:   cfg,
		Services: services,
		Cache:    webService.Cache(),
	})
	if err != nil {
		_ = db.Close(conn)

		return nil, err //nolint:wrapcheck
	}

	if err = seed(cfg, conn, c); err != nil {
		_ = db.Close(conn)

		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		db:         conn,
		core:       c,
		webService: webService,
	}, nil
}

// Models compiles the model files and, with sync, synchronises their tables.
func Models(cfg *config.Config, sync bool) (*models.Registry, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	defer func() { _ = db.Close(conn) }()

	reg, err := models.LoadDir(conn, cfg.Paths.Models)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if sync {
		if err = models.SyncAll(conn, reg); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return reg, nil
}
