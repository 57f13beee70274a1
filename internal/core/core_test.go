package core

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/restcore/restcore/internal/api"
	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/db/hooks"
	"github.com/restcore/restcore/internal/db/models"
	"github.com/restcore/restcore/internal/web/handler"
)

type noteRouter struct {
	opts handler.Options
}

func (r *noteRouter) Init(opts handler.Options) error {
	r.opts = opts

	return nil
}

func (r *noteRouter) Register(router fiber.Router) {
	router.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"models": r.opts.Models.Len()})
	})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

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

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()

	writeFile(t, filepath.Join(root, "models"), "post.yaml", "fields:\n  title: string\n  data: json\n")
	writeFile(t, filepath.Join(root, "models"), "note.yaml", "fields:\n  body: text\n")
	writeFile(t, filepath.Join(root, "configs"), "post.yaml", "audit: false\npageSize: 20\n")
	writeFile(t, filepath.Join(root, "bootstrap"), "app.yml", "title: demo\n")

	return &config.Config{
		Paths: config.Paths{
			Models:    filepath.Join(root, "models"),
			Configs:   filepath.Join(root, "configs"),
			Bootstrap: filepath.Join(root, "bootstrap"),
		},
		API:      config.API{DefaultPrefix: "/v1", DefaultSchema: "public"},
		Services: config.Services{Audit: true},
	}
}

func reset(t *testing.T) {
	t.Helper()

	api.Reset()
	models.ResetLoaded()

	t.Cleanup(func() {
		api.Reset()
		models.ResetLoaded()
	})
}

func call(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))

	return resp.StatusCode, out
}

func TestInit(t *testing.T) {
	reset(t)
	api.RegisterPrefix("/v1/note", &noteRouter{})

	var gotConfigs map[string]any

	app := fiber.New()
	c, err := Init(app, openDB(t), Options{
		Config: testConfig(t),
		Services: []Service{func(_ fiber.Router, reg *models.Registry, configs map[string]any) error {
			assert.Equal(t, 2, reg.Len())

			gotConfigs = configs

			return nil
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"note", "post"}, c.Models().Names())
	assert.Same(t, c.Models(), GetModels())
	assert.Equal(t, []string{"/v1/post"}, c.Generated())
	require.Len(t, c.Custom(), 1)
	assert.Equal(t, "note", c.Custom()[0].Entity)
	assert.Equal(t, map[string]any{"audit": false, "pageSize": 20}, gotConfigs["post"])

	status, body := call(t, app, fiber.MethodGet, "/v1/post", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0.0, body["count"])

	status, body = call(t, app, fiber.MethodGet, "/v1/note/ping", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2.0, body["models"])

	status, body = call(t, app, fiber.MethodGet, BootstrapPath, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, map[string]any{"title": "demo"}, body["app"])
}

func TestSubscribe(t *testing.T) {
	reset(t)

	app := fiber.New()
	_, err := Init(app, openDB(t), Options{Config: testConfig(t)})
	require.NoError(t, err)

	assert.Nil(t, Subscribe("post", "beforeCreate"))

	var created []map[string]any

	Subscribe("post", string(hooks.AfterCreate))(func(record map[string]any, _ *gorm.DB) error {
		created = append(created, record)

		return nil
	})

	status, body := call(t, app, fiber.MethodPost, "/v1/post", `{"title":"hello","data":{"a":1}}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "hello", body["title"])

	require.Len(t, created, 1)
	assert.Equal(t, "hello", created[0]["title"])
}

func TestInitErrors(t *testing.T) {
	errCheck := errors.New("check failed")

	tests := []struct {
		name    string
		setup   func(t *testing.T) (*gorm.DB, Options)
		wantErr error
	}{
		{
			name: "nil config",
			setup: func(t *testing.T) (*gorm.DB, Options) {
				return openDB(t), Options{}
			},
			wantErr: ErrNilConfig,
		},
		{
			name: "nil db",
			setup: func(t *testing.T) (*gorm.DB, Options) {
				return nil, Options{Config: testConfig(t)}
			},
			wantErr: ErrNilDB,
		},
		{
			name: "post-load check",
			setup: func(t *testing.T) (*gorm.DB, Options) {
				models.OnLoaded("post", func(*gorm.DB, *models.Registry) error { return errCheck })

				return openDB(t), Options{Config: testConfig(t)}
			},
			wantErr: errCheck,
		},
		{
			name: "service",
			setup: func(t *testing.T) (*gorm.DB, Options) {
				return openDB(t), Options{
					Config: testConfig(t),
					Services: []Service{func(fiber.Router, *models.Registry, map[string]any) error {
						return errCheck
					}},
				}
			},
			wantErr: errCheck,
		},
		{
			name: "duplicate router prefix",
			setup: func(t *testing.T) (*gorm.DB, Options) {
				api.RegisterPrefix("/v1/note", &noteRouter{})
				api.RegisterPrefix("/v1/note/", &noteRouter{})

				return openDB(t), Options{Config: testConfig(t)}
			},
			wantErr: api.ErrDuplicatePrefix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(t)

			db, opts := tt.setup(t)

			_, err := Init(fiber.New(), db, opts)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInvalidModelFile(t *testing.T) {
	reset(t)

	cfg := testConfig(t)
	writeFile(t, cfg.Paths.Models, "broken.yaml", "fields:\n  title: nope\n")

	_, err := Init(fiber.New(), openDB(t), Options{Config: cfg})
	require.ErrorIs(t, err, models.ErrInvalidDefinition)
}

func TestInDefaultSchema(t *testing.T) {
	c := &Core{cfg: &config.Config{API: config.API{DefaultPrefix: "v1/", DefaultSchema: "public"}}}

	assert.True(t, c.inDefaultSchema(&models.Model{}))
	assert.True(t, c.inDefaultSchema(&models.Model{Schema: "public"}))
	assert.False(t, c.inDefaultSchema(&models.Model{Schema: "archive"}))

	assert.Equal(t, "/v1/post", c.RoutePath("post"))

	c.cfg.API.DefaultPrefix = ""
	assert.Equal(t, "/post", c.RoutePath("post"))
}

func TestGetModelsBeforeInit(t *testing.T) {
	setCurrent(nil)

	assert.Nil(t, GetModels())
	assert.Nil(t, Subscribe("post", string(hooks.AfterCreate)))
}

func TestReload(t *testing.T) {
	reset(t)

	cfg := testConfig(t)
	app := fiber.New()

	c, err := Init(app, openDB(t), Options{Config: cfg})
	require.NoError(t, err)

	file := filepath.Join(cfg.Paths.Models, "post.yaml")
	writeFile(t, cfg.Paths.Models, "post.yaml", "fields:\n  title: string\n  data: json\n  views: integer\n")

	m, err := c.Reload(file)
	require.NoError(t, err)
	assert.True(t, m.HasColumn("views"))

	got, ok := c.Models().Get("post")
	require.True(t, ok)
	assert.Same(t, m, got)

	status, body := call(t, app, fiber.MethodPost, "/v1/post", `{"title":"hello","views":3}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 3.0, body["views"])

	writeFile(t, cfg.Paths.Models, "post.yaml", "fields:\n  title: nope\n")
	_, err = c.Reload(file)
	require.ErrorIs(t, err, models.ErrInvalidDefinition)
}
