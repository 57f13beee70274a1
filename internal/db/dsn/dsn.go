// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/restcore/restcore/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
// A configured db.url is returned unchanged.
func Create(cfg *config.Config) string {
	if cfg.DB.URL != "" {
		return cfg.DB.URL
	}

	switch cfg.DB.GormEngine {
	case "mysql":
		return mysql(cfg.DB)
	case "sqlite":
		return sqlite(cfg.DB)
	default:
		return postgres(cfg.DB)
	}
}

// postgres builds a key/value DSN: host=... port=... TimeZone=...
func postgres(db config.DB) string {
	parts := []string{
		"host=" + quote(db.Host),
		fmt.Sprintf("port=%d", db.Port),
		"user=" + quote(db.User),
		"password=" + quote(db.Password),
		"dbname=" + quote(db.Name),
	}

	if db.TimeZone != "" {
		parts = append(parts, "TimeZone="+quote(db.TimeZone))
	}

	if db.Extras != "" {
		parts = append(parts, strings.Fields(strings.ReplaceAll(db.Extras, "&", " "))...)
	}

	return strings.Join(parts, " ")
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote single-quotes a key/value DSN value when it is empty or holds spaces, quotes
// or backslashes.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}

	return "'" + quoteEscaper.Replace(v) + "'"
}

func mysql(db config.DB) string {
	extras := db.Extras
	if extras == "" {
		extras = "charset=utf8mb4&parseTime=True"
	}

	if db.TimeZone != "" {
		extras += "&loc=" + url.QueryEscape(db.TimeZone)
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		extras,
	)
}

func sqlite(db config.DB) string {
	if db.Extras == "" {
		return db.Name
	}

	return db.Name + "?" + db.Extras
}
