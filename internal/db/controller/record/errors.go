package record

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrUnknownModel is returned for an entity without a compiled model.
	ErrUnknownModel = errors.New("unknown model")
	// ErrRecordNotFound is returned when no row matches the lookup key.
	ErrRecordNotFound = errors.New("record not found")
	// ErrUnknownColumn is returned when a query or body names a column the model does not have.
	ErrUnknownColumn = models.ErrUnknownColumn
	// ErrInvalidQuery is returned for malformed list, sort or populate parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidBody is returned when a body value can not be stored in its column.
	ErrInvalidBody = errors.New("invalid body")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps gorm and model errors to the package errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(ErrDuplicate, err.Error())
	case errors.Is(err, models.ErrInvalidValue):
		return errors.Wrap(ErrInvalidBody, err.Error())
	default:
		return err
	}
}
