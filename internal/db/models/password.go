package models

import (
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const argon2idPrefix = "$argon2id$"

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	hashed, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return hashed, nil
}

// IsHashed reports whether s already is an Argon2id hash.
func IsHashed(s string) bool {
	return strings.HasPrefix(s, argon2idPrefix)
}

// VerifyPassword compares a plaintext password against the hash stored in a password column.
func (m *Model) VerifyPassword(record any, column, password string) bool {
	f, ok := m.Column(column)
	if !ok || f.Type != TypePassword {
		return false
	}

	hashed, _ := m.Value(record, column).(string) //nolint:errcheck
	if hashed == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, hashed)
	if err != nil {
		log.Error().Err(err).Str("model", m.Name).Msg("failed to verify password")

		return false
	}

	return match
}

// Prepare fills generated defaults when creating and hashes plaintext passwords.
func (m *Model) Prepare(record any, creating bool) error {
	for _, f := range m.fields {
		if creating && m.IsZero(record, f.Name) {
			switch f.Default {
			case DefaultUUIDv4:
				if err := m.Set(record, f.Name, uuid.NewString()); err != nil {
					return err
				}
			case DefaultNow:
				if err := m.Set(record, f.Name, time.Now()); err != nil {
					return err
				}
			}
		}

		if f.Type != TypePassword {
			continue
		}

		plain, _ := m.Value(record, f.Name).(string) //nolint:errcheck
		if plain == "" || IsHashed(plain) {
			continue
		}

		hashed, err := HashPassword(plain)
		if err != nil {
			return err
		}

		if err = m.Set(record, f.Name, hashed); err != nil {
			return err
		}
	}

	return nil
}
