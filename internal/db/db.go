// Package db opens the gorm connection for the configured engine.
package db

import (
	"time"

	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/db/dsn"
	gormadapter "github.com/restcore/restcore/internal/logger/adapter/gorm"
	"github.com/restcore/restcore/internal/logger/adapter/stdlogger"
)

// ErrUnknownEngine is returned for an unsupported db.gormEngine.
var ErrUnknownEngine = errors.New("unknown gorm engine")

// Dialector returns the gorm dialector for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	source := dsn.Create(cfg)

	switch cfg.DB.GormEngine {
	case "", "postgres":
		return postgres.Open(source), nil
	case "mysql":
		// route driver errors, e.g. broken connections, to zerolog
		_ = mysqldriver.SetLogger(stdlogger.New("mysql"))

		return mysql.Open(source), nil
	case "sqlite":
		return sqlite.Open(source), nil
	default:
		return nil, errors.Wrap(ErrUnknownEngine, cfg.DB.GormEngine)
	}
}

// Open connects to the database, applies pool settings and checks the connection.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	return OpenDialector(dialector, cfg)
}

// OpenDialector opens gorm on an explicit dialector, used by tests and Open.
func OpenDialector(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormadapter.New(cfg.Log.SQL),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql db")
	}

	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}

	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}

	if cfg.DB.ConnMaxLifetimeSec > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.ConnMaxLifetimeSec) * time.Second)
	}

	if err = sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "unable to reach the database")
	}

	log.Info().Str("engine", db.Dialector.Name()).Msg("database connection has been established")

	return db, nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Msg("closing database connection...")

	return sqlDB.Close() //nolint:wrapcheck
}
