package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrDBNotConfigured error if neither db.url nor db.host/db.name (sqlite: db.name) are set.
	ErrDBNotConfigured = errors.New("config db.url or db.host and db.name must be set")
)
