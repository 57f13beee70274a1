package record

import (
	"context"

	"gorm.io/gorm"
)

// StartTransaction runs fn in a transaction, committed when fn returns nil.
func StartTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return ErrDBNil
	}

	return db.WithContext(ctx).Transaction(fn) //nolint:wrapcheck
}

// Raw runs a SQL query and returns its rows as column maps.
func Raw(ctx context.Context, db *gorm.DB, query string, args ...any) ([]map[string]any, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []map[string]any
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}

	return rows, nil
}
