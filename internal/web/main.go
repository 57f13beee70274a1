// Package web runs the fiber server hosting the generated and custom API routes.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/restcore/restcore/internal/config"
	fiberadapter "github.com/restcore/restcore/internal/logger/adapter/fiber"
	"github.com/restcore/restcore/internal/web/handler"
)

const (
	// PingPath answers with pong.
	PingPath = "/ping"
	// CheckAlivePath answers 503 while shutting down.
	CheckAlivePath = "/checkalive"
	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"

	readBufferSize = 8192
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	storage      fiber.Storage
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// Alive reports whether /checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// SetFastShutDown skips the checkalive grace period on shutdown.
func (s *Service) SetFastShutDown(fast bool) {
	s.fastShutDown = fast
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown stops the http server. Unless fast shutdown is set, checkalive fails
// for the configured shutdown time first so load balancers drain the instance.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close cache storage")
		}
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Cache returns the response cache middleware, or nil when caching is disabled.
func (s *Service) Cache() fiber.Handler {
	if !s.cfg.Webserver.CacheEnabled {
		return nil
	}

	return cache.New(cache.Config{
		Expiration:   time.Duration(s.cfg.Webserver.CacheExpiration) * time.Second,
		CacheControl: true,
		Storage:      s.storage,
	})
}

// errorHandler renders errors escaping the handlers as {"error": message}.
// Anything but a fiber.Error is an internal error.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		err = fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return handler.SendError(c, err)
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: readBufferSize,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      cfg.Webserver.BodyLimit,
			ErrorHandler:   errorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(fiberadapter.New(fiberadapter.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	service := &Service{
		App: app,
		cfg: cfg,
	}
	service.alive.Store(true)

	if cfg.Webserver.CacheEnabled {
		service.storage = NewStorage(cfg)
	}

	app.Get(PingPath, func(c *fiber.Ctx) error {
		return c.SendString("pong\n")
	})

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK\n")
	})

	if cfg.Services.Metrics {
		app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	}

	return service
}
