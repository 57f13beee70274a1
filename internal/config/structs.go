package config

import (
	"github.com/restcore/restcore/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool       `yaml:"devMode"` // enable dev mode for development
	Title     string     `yaml:"title"`
	DB        DB         `yaml:"db"`
	Log       logger.Log `yaml:"log"`
	Webserver Webserver  `yaml:"webserver"`
	Paths     Paths      `yaml:"paths"`
	API       API        `yaml:"api"`
	Services  Services   `yaml:"services"`
}

// DB holds the database configuration settings.
// URL takes precedence over the discrete connection fields.
type DB struct {
	URL                string `yaml:"url"`
	Extras             string `yaml:"extras"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	GormEngine         string `yaml:"gormEngine" validate:"oneof=postgres mysql sqlite"`
	TimeZone           string `yaml:"timeZone"`
	MaxIdleConns       int    `yaml:"maxIdleConns"`
	MaxOpenConns       int    `yaml:"maxOpenConns"`
	ConnMaxLifetimeSec int    `yaml:"connMaxLifetimeSec"`
}

// Webserver implement webserver settings.
type Webserver struct {
	CacheEnabled    bool   `yaml:"cacheEnabled"`    // true = cache the /_bootstrap endpoint
	CacheExpiration int    `yaml:"cacheExpiration"` // seconds
	CacheTable      string `yaml:"cacheTable"`      // table used by the shared cache storage
	DisableRecover  bool   `yaml:"disableRecover"`  // disable recover middleware
	Port            int    `yaml:"port"`            // listening port for the webserver
	ShutDownTime    int    `yaml:"shutDownTime"`    // wait time for shutdown
	URL             string `yaml:"url"`             // base url for the webserver
	BodyLimit       int    `yaml:"bodyLimit"`       // max request body size in bytes
}

// Paths points to the convention directories scanned at bootstrap.
type Paths struct {
	Models    string `yaml:"models" validate:"required"`
	Configs   string `yaml:"configs"`
	Bootstrap string `yaml:"bootstrap"`
	Seeds     string `yaml:"seeds"`
}

// API configures generated routes.
type API struct {
	// DefaultPrefix is prepended to generated CRUD routes, e.g. /v1/<entity>.
	DefaultPrefix string `yaml:"defaultPrefix"`
	// DefaultSchema limits generated CRUD routes to models in this db schema.
	DefaultSchema string `yaml:"defaultSchema"`
}

// Services toggles the built-in bootstrap services.
type Services struct {
	Audit   bool `yaml:"audit"`   // log every create/update/destroy
	Metrics bool `yaml:"metrics"` // expose /metrics
}
