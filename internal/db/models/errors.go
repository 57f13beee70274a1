package models

import "github.com/pkg/errors"

var (
	// ErrInvalidDefinition is returned for a model file that can not be compiled.
	ErrInvalidDefinition = errors.New("invalid model definition")
	// ErrDuplicateModel is returned when two model files declare the same entity.
	ErrDuplicateModel = errors.New("model already registered")
	// ErrUnknownColumn is returned when a column is not part of the model schema.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidValue is returned when a value can not be converted to the column type.
	ErrInvalidValue = errors.New("invalid value")
)
