//go:build integration

package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/restcore/restcore/internal/db/controller/record"
	"github.com/restcore/restcore/internal/db/hooks"
	"github.com/restcore/restcore/internal/db/models"
)

func TestPostgresIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("restcore_test"),
		tcpostgres.WithUsername("restcore"),
		tcpostgres.WithPassword("restcore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{DSN: dsn}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	reg := models.NewRegistry()
	require.NoError(t, reg.Add(compile(t, db, "user", userModel)))
	require.NoError(t, models.SyncAll(db, reg))
	require.NoError(t, models.SyncAll(db, reg))

	bus := hooks.NewBus(reg)
	require.NoError(t, bus.Register(db))

	users, err := record.New(db, reg, bus, "user")
	require.NoError(t, err)

	jane, err := users.Post(ctx, map[string]any{
		"email": "Jane@Example.com",
		"name":  map[string]any{"first": "Jane"},
		"data":  map[string]any{"a": 1},
	})
	require.NoError(t, err)

	_, err = users.Post(ctx, map[string]any{"email": "Jane@Example.com"})
	require.ErrorIs(t, err, record.ErrDuplicate)

	result, err := users.List(ctx, record.ListOptions{Rows: 10, Page: 1, Search: map[string]any{"email": "jane@"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Count)

	patched, err := users.Patch(ctx, jane["id"].(string), map[string]any{"data": map[string]any{"b": 2}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, patched["data"])

	count, err := users.Delete(ctx, jane["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
