package api_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/api"
	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/db/models"
	"github.com/restcore/restcore/internal/web/handler"
)

var errInit = errors.New("init failed")

type pingRouter struct {
	initErr error
	inited  bool
}

func (p *pingRouter) Init(_ handler.Options) error {
	p.inited = true

	return p.initErr
}

func (p *pingRouter) Register(r fiber.Router) {
	r.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
}

func options() handler.Options {
	return handler.Options{Config: &config.Config{}, DB: &gorm.DB{}, Models: models.NewRegistry()}
}

func TestRegisterOutsideRouterDir(t *testing.T) {
	api.Reset()
	t.Cleanup(api.Reset)

	// files directly in the api directory have no prefix
	api.Register(&pingRouter{})
	assert.Empty(t, api.Entries())
}

func TestRegisterPrefixAndMount(t *testing.T) {
	api.Reset()
	t.Cleanup(api.Reset)

	router := &pingRouter{}
	api.RegisterPrefix("v2/ping/", router)

	_, ok := api.Entities()["ping"]
	assert.True(t, ok)

	app := fiber.New()
	mounted, err := api.Mount(app, options())
	require.NoError(t, err)
	require.Len(t, mounted, 1)
	assert.True(t, router.inited)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/v2/ping", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestMountErrors(t *testing.T) {
	api.Reset()
	t.Cleanup(api.Reset)

	api.RegisterPrefix("/v1/a", &pingRouter{initErr: errInit})

	_, err := api.Mount(fiber.New(), options())
	require.ErrorIs(t, err, errInit)

	api.Reset()
	api.RegisterPrefix("/v1/a", &pingRouter{})
	api.RegisterPrefix("/v1/a", &pingRouter{})

	_, err = api.Mount(fiber.New(), options())
	require.ErrorIs(t, err, api.ErrDuplicatePrefix)
}

func TestEntityName(t *testing.T) {
	assert.Equal(t, "user", api.EntityName("/v1/user"))
	assert.Equal(t, "user", api.EntityName("/v1/user/"))
	assert.Equal(t, "health", api.EntityName("/health"))
}
