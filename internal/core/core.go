// Package core bootstraps the service: it loads the convention directories, compiles
// and synchronises the models, runs the services and mounts the custom and generated
// routers.
package core

import (
	"path"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/api"
	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/db/hooks"
	"github.com/restcore/restcore/internal/db/models"
	"github.com/restcore/restcore/internal/files"
	"github.com/restcore/restcore/internal/logger"
	"github.com/restcore/restcore/internal/web/handler"
	"github.com/restcore/restcore/internal/web/handler/crud"
)

// BootstrapPath serves the bootstrap files keyed by entity.
const BootstrapPath = "/_bootstrap"

var (
	// ErrNilConfig is returned by Init without a configuration.
	ErrNilConfig = errors.New("config is nil")
	// ErrNilDB is returned by Init without a database.
	ErrNilDB = errors.New("db is nil")
)

// Service runs after the models are synchronised and before routers are mounted.
type Service func(app fiber.Router, reg *models.Registry, configs map[string]any) error

// Options configures Init.
type Options struct {
	Config *config.Config
	// Services run in order after the built-in services.
	Services []Service
	// Cache, when set, caches the bootstrap endpoint.
	Cache fiber.Handler
}

// Core is the bootstrapped state of the service.
type Core struct {
	cfg       *config.Config
	db        *gorm.DB
	registry  *models.Registry
	bus       *hooks.Bus
	configs   map[string]any
	bootstrap map[string]any
	custom    []api.Entry
	generated []string
	log       zerolog.Logger
}

var (
	mu      sync.RWMutex
	current *Core
)

// Init bootstraps the service on app in dependency order: configs, bootstrap files,
// models, post-load functions, schema sync, hooks, services, custom routers,
// generated CRUD routers and the bootstrap endpoint.
func Init(app fiber.Router, db *gorm.DB, opts Options) (*Core, error) {
	if opts.Config == nil {
		return nil, ErrNilConfig
	}

	if db == nil {
		return nil, ErrNilDB
	}

	c := &Core{cfg: opts.Config, db: db, log: logger.Component("core")}

	var err error

	if c.configs, err = c.loadEntityFiles(opts.Config.Paths.Configs); err != nil {
		return nil, errors.Wrap(err, "failed to load configs")
	}

	if c.bootstrap, err = c.loadEntityFiles(opts.Config.Paths.Bootstrap); err != nil {
		return nil, errors.Wrap(err, "failed to load bootstrap files")
	}

	if c.registry, err = models.LoadDir(db, opts.Config.Paths.Models); err != nil {
		return nil, errors.Wrap(err, "failed to load models")
	}

	for _, name := range c.registry.Names() {
		c.log.Debug().Str("model", name).Msg("model registered")
	}

	if err = models.RunLoaded(db, c.registry); err != nil {
		return nil, errors.Wrap(err, "post-load check failed")
	}

	if err = models.SyncAll(db, c.registry); err != nil {
		return nil, err
	}

	c.bus = hooks.NewBus(c.registry)
	if err = c.bus.Register(db); err != nil {
		return nil, err
	}

	setCurrent(c)

	services := append(builtinServices(opts.Config), opts.Services...)
	for _, svc := range services {
		if err = svc(app, c.registry, c.configs); err != nil {
			return nil, errors.Wrap(err, "service failed")
		}
	}

	handlerOpts := c.HandlerOptions()

	if c.custom, err = api.Mount(app, handlerOpts); err != nil {
		return nil, err
	}

	if err = c.mountDefaults(app, handlerOpts); err != nil {
		return nil, err
	}

	bootstrapHandlers := []fiber.Handler{c.serveBootstrap}
	if opts.Cache != nil {
		bootstrapHandlers = append([]fiber.Handler{opts.Cache}, bootstrapHandlers...)
	}

	app.Get(BootstrapPath, bootstrapHandlers...)

	c.log.Info().
		Int("models", c.registry.Len()).
		Int("customRouters", len(c.custom)).
		Int("generatedRouters", len(c.generated)).
		Msg("bootstrap finished")

	return c, nil
}

// loadEntityFiles parses every YAML file below dir keyed by entity name.
func (c *Core) loadEntityFiles(dir string) (map[string]any, error) {
	out := map[string]any{}
	if dir == "" {
		return out, nil
	}

	_, err := files.GetFiles(dir, []string{"*.yaml", "*.yml"}, func(file string) error {
		v, err := files.ParseYAML(file)
		if err != nil {
			return err
		}

		entity := files.EntityName(file)
		out[entity] = v

		c.log.Debug().Str("entity", entity).Str("file", file).Msg("file loaded")

		return nil
	})

	return out, err
}

// inDefaultSchema reports whether generated routes are served for m.
func (c *Core) inDefaultSchema(m *models.Model) bool {
	return m.Schema == "" || m.Schema == c.cfg.API.DefaultSchema
}

// RoutePath returns the path of the generated routes of entity.
func (c *Core) RoutePath(entity string) string {
	prefix := "/" + strings.Trim(c.cfg.API.DefaultPrefix, "/")

	return path.Join(prefix, entity)
}

// mountDefaults serves generated CRUD routes for every model in the default schema
// that has no custom router.
func (c *Core) mountDefaults(app fiber.Router, opts handler.Options) error {
	custom := map[string]struct{}{}
	for _, e := range c.custom {
		custom[e.Entity] = struct{}{}
	}

	return c.registry.Each(func(m *models.Model) error {
		if _, ok := custom[m.Name]; ok {
			return nil
		}

		if !c.inDefaultSchema(m) {
			c.log.Debug().Str("model", m.Name).Str("schema", m.Schema).Msg("model outside the default schema, no routes generated")

			return nil
		}

		s := crud.New(m.Name)
		if err := s.Init(opts); err != nil {
			return errors.Wrapf(err, "failed to init routes of %s", m.Name)
		}

		p := c.RoutePath(m.Name)
		s.Register(app.Group(p))
		c.generated = append(c.generated, p)

		c.log.Info().Str("prefix", p).Str("entity", m.Name).Msg("generated router mounted")

		return nil
	})
}

func (c *Core) serveBootstrap(ctx *fiber.Ctx) error {
	return ctx.JSON(c.bootstrap)
}

// HandlerOptions returns the options handed to route handlers.
func (c *Core) HandlerOptions() handler.Options {
	return handler.Options{Config: c.cfg, DB: c.db, Models: c.registry, Hooks: c.bus}
}

// Models returns the model registry.
func (c *Core) Models() *models.Registry {
	return c.registry
}

// Hooks returns the hook bus.
func (c *Core) Hooks() *hooks.Bus {
	return c.bus
}

// Configs returns the entity configs.
func (c *Core) Configs() map[string]any {
	return c.configs
}

// Bootstrap returns the bootstrap files served by the bootstrap endpoint.
func (c *Core) Bootstrap() map[string]any {
	return c.bootstrap
}

// Generated returns the prefixes of the generated routers.
func (c *Core) Generated() []string {
	return append([]string(nil), c.generated...)
}

// Custom returns the mounted custom routers.
func (c *Core) Custom() []api.Entry {
	return append([]api.Entry(nil), c.custom...)
}

func setCurrent(c *Core) {
	mu.Lock()
	defer mu.Unlock()

	current = c
}

// GetModels returns the model registry of the last Init, nil before.
func GetModels() *models.Registry {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil {
		return nil
	}

	return current.registry
}

// Subscribe registers a hook on the bus of the last Init. It returns nil for an
// unknown hook or before Init.
func Subscribe(entity, hook string) func(fn hooks.Func) {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil {
		return nil
	}

	return current.bus.Subscribe(entity, hook)
}
