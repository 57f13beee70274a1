// Package env loads .env files into the process environment and exposes typed lookups.
package env

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var (
	mu   sync.RWMutex
	vars = map[string]any{}    //nolint:gochecknoglobals
	raws = map[string]string{} //nolint:gochecknoglobals
)

// Init reads the given .env files (default ".env") and stores their values parsed.
// Values already present in the process environment are not overwritten.
// A missing file is not an error.
func Init(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	mu.Lock()
	defer mu.Unlock()

	for _, file := range files {
		parsed, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return errors.Wrapf(err, "failed to read env file %s", file)
		}

		for key, value := range parsed {
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, value)
			}

			vars[key] = ParseValue(value)
			raws[key] = value
		}
	}

	return nil
}

// ParseValue converts "true"/"false" to bool and numeric strings to float64.
// Everything else is returned unchanged.
func ParseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return value
}

// Get returns the parsed value of key from loaded env files, then the process
// environment, then defaultValue.
func Get(key string, defaultValue any) any {
	mu.RLock()
	v, ok := vars[key]
	mu.RUnlock()

	if ok && !isZero(v) {
		return v
	}

	if raw, exists := os.LookupEnv(key); exists && raw != "" {
		return ParseValue(raw)
	}

	return defaultValue
}

// GetString returns Get as string.
func GetString(key, defaultValue string) string {
	// strings keep their original spelling, e.g. a port "08080"
	mu.RLock()
	raw := raws[key]
	mu.RUnlock()

	if raw != "" {
		return raw
	}

	if raw, exists := os.LookupEnv(key); exists && raw != "" {
		return raw
	}

	return defaultValue
}

// GetInt returns Get as int.
func GetInt(key string, defaultValue int) int {
	v := Get(key, nil)
	if v == nil {
		return defaultValue
	}

	i, err := cast.ToIntE(v)
	if err != nil {
		return defaultValue
	}

	return i
}

// GetBool returns Get as bool.
func GetBool(key string, defaultValue bool) bool {
	v := Get(key, nil)
	if v == nil {
		return defaultValue
	}

	b, err := cast.ToBoolE(v)
	if err != nil {
		return defaultValue
	}

	return b
}

// Reset forgets all values loaded by Init.
func Reset() {
	mu.Lock()
	vars = map[string]any{}
	raws = map[string]string{}
	mu.Unlock()
}

// isZero mirrors the falsy check of the lookup chain: false, 0 and "" fall through.
func isZero(v any) bool {
	switch t := v.(type) {
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	}

	return v == nil
}
