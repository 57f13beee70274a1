// Package config reads the service configuration from etc/main.yaml, .env and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/restcore/restcore/internal/env"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. RESTCORE_WEBSERVER_PORT.
	EnvPrefix = "RESTCORE"

	// JSONConfigEnv holds a JSON document merged over the file configuration.
	JSONConfigEnv = "RESTCORE_CONFIG_JSON"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	if err = env.Init(); err != nil {
		return Config{}, err
	}

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("main")
	v.AddConfigPath(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	applyEnv(&c)

	// override it from env
	if configJSON := os.Getenv(JSONConfigEnv); configJSON != "" {
		c, err = decodeAndMergeConfig(c, configJSON)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "restcore")
	v.SetDefault("db.gormEngine", "postgres")
	v.SetDefault("db.port", 5432)
	v.SetDefault("log.logLevel", "info")
	v.SetDefault("log.appName", "restcore")
	v.SetDefault("log.serviceName", "api")
	v.SetDefault("log.console.enabled", true)
	v.SetDefault("webserver.port", 8080)
	v.SetDefault("webserver.url", "http://localhost:8080")
	v.SetDefault("webserver.shutDownTime", 5)
	v.SetDefault("webserver.cacheExpiration", 60)
	v.SetDefault("webserver.cacheTable", "fiber_cache")
	v.SetDefault("paths.models", "models")
	v.SetDefault("paths.configs", "configs")
	v.SetDefault("paths.bootstrap", "bootstrap")
	v.SetDefault("paths.seeds", "seeds")
	v.SetDefault("api.defaultPrefix", "/v1")
	v.SetDefault("api.defaultSchema", "public")
}

// applyEnv honours the conventional variables of the .env file.
func applyEnv(c *Config) {
	c.DB.URL = env.GetString("DATABASE_URL", c.DB.URL)
	c.Log.LogLevel = env.GetString("LOG_LEVEL", c.Log.LogLevel)
	c.Webserver.Port = env.GetInt("PORT", c.Webserver.Port)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfig config as YAML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	y := yaml.NewEncoder(&buffer)
	y.SetIndent(2) //nolint:mnd

	if err := y.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.DB.URL == "" && c.DB.Name == "" {
		return errors.Wrap(ErrDBNotConfigured, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	return nil
}
