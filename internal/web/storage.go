package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/db/dsn"
)

// NewStorage returns the shared cache storage of the configured engine. The cache
// table lives next to the models. Sqlite uses the in-memory storage of the cache
// middleware, signalled by a nil storage.
func NewStorage(cfg *config.Config) fiber.Storage {
	table := cfg.Webserver.CacheTable

	switch cfg.DB.GormEngine {
	case "", "postgres":
		log.Info().Str("table", table).Msg("using postgres cache storage")

		return postgres.New(postgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         table,
		})
	case "mysql":
		log.Info().Str("table", table).Msg("using mysql cache storage")

		return mysql.New(mysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         table,
		})
	default:
		return nil
	}
}
