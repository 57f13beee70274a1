package models_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/restcore/restcore/internal/db/models"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func writeModels(t *testing.T, content map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, body := range content {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	return dir
}

func TestLoadDirAndSync(t *testing.T) {
	db := openDB(t)
	dir := writeModels(t, map[string]string{
		"user.yaml": userYAML,
		"post.yaml": "fields:\n  title: string\n  body: text\n",
	})

	reg, err := models.LoadDir(db, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"post", "user"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, models.SyncAll(db, reg))
	// a second run alters nothing
	require.NoError(t, models.SyncAll(db, reg))

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasTable("posts"))

	user, ok := reg.ByTable("users")
	require.True(t, ok)

	record := user.New()
	require.NoError(t, user.Assign(record, map[string]any{"email": "a@b.c", "name": map[string]any{"first": "A"}}))
	require.NoError(t, user.Prepare(record, true))
	require.NoError(t, db.Table(user.Table).Create(record).Error)

	found := user.New()
	require.NoError(t, db.Table(user.Table).Where("email = ?", "a@b.c").First(found).Error)

	out := user.ToMap(found, false)
	assert.Equal(t, map[string]any{"first": "A"}, out["name"])
	assert.Equal(t, int64(1), out["cid"])
	assert.NotNil(t, out["created_at"])
}

func TestSyncAddsColumns(t *testing.T) {
	db := openDB(t)

	dir := writeModels(t, map[string]string{"post.yaml": "fields:\n  title: string\n"})
	reg, err := models.LoadDir(db, dir)
	require.NoError(t, err)
	require.NoError(t, models.SyncAll(db, reg))

	dir = writeModels(t, map[string]string{"post.yaml": "fields:\n  title: string\n  views: integer\n"})
	m, err := models.CompileFile(db, filepath.Join(dir, "post.yaml"))
	require.NoError(t, err)

	reg.Replace(m)
	require.NoError(t, models.Sync(db, m))

	assert.True(t, hasColumn(t, db, "posts", "views"))
}

func hasColumn(t *testing.T, db *gorm.DB, table, column string) bool {
	t.Helper()

	types, err := db.Migrator().ColumnTypes(table)
	require.NoError(t, err)

	for _, ct := range types {
		if ct.Name() == column {
			return true
		}
	}

	return false
}

func TestRegistry(t *testing.T) {
	reg := models.NewRegistry()

	a := &models.Model{Name: "a", Table: "as"}
	require.NoError(t, reg.Add(a))
	require.ErrorIs(t, reg.Add(&models.Model{Name: "a", Table: "other"}), models.ErrDuplicateModel)
	require.ErrorIs(t, reg.Add(&models.Model{Name: "b", Table: "as"}), models.ErrDuplicateModel)

	reg.Replace(&models.Model{Name: "a", Table: "alphas"})

	_, ok := reg.ByTable("as")
	assert.False(t, ok)

	got, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alphas", got.Table)

	var seen []string
	require.NoError(t, reg.Each(func(m *models.Model) error {
		seen = append(seen, m.Name)
		return nil
	}))
	assert.Equal(t, []string{"a"}, seen)
}

func TestRunLoaded(t *testing.T) {
	t.Cleanup(models.ResetLoaded)

	db := openDB(t)
	reg := models.NewRegistry()
	require.NoError(t, reg.Add(&models.Model{Name: "user", Table: "users"}))

	var calls []string

	models.OnLoaded("user", func(_ *gorm.DB, r *models.Registry) error {
		calls = append(calls, "user")
		_, ok := r.Get("user")
		assert.True(t, ok)

		return nil
	})
	models.OnLoaded("ghost", func(_ *gorm.DB, _ *models.Registry) error {
		calls = append(calls, "ghost")
		return nil
	})

	require.NoError(t, models.RunLoaded(db, reg))
	assert.Equal(t, []string{"user"}, calls)
}
