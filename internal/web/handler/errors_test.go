package handler_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restcore/restcore/internal/db/controller/record"
	"github.com/restcore/restcore/internal/web/handler"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{record.ErrRecordNotFound, fiber.StatusNotFound},
		{errors.Wrap(record.ErrUnknownModel, "x"), fiber.StatusNotFound},
		{errors.Wrap(record.ErrDuplicate, "x"), fiber.StatusConflict},
		{record.ErrInvalidQuery, fiber.StatusBadRequest},
		{errors.New("boom"), fiber.StatusBadRequest},
		{fiber.ErrUnauthorized, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, handler.Status(tt.err))
		})
	}
}

func TestSendErrorAndParseBody(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		body, err := handler.ParseBody(c)
		if err != nil {
			return handler.SendError(c, err)
		}

		return c.JSON(body)
	})

	tests := []struct {
		body       string
		wantStatus int
		wantBody   string
	}{
		{"", fiber.StatusOK, "{}"},
		{`{"a":1}`, fiber.StatusOK, `{"a":1}`},
		{`[1]`, fiber.StatusBadRequest, `"error"`},
		{`{`, fiber.StatusBadRequest, `"error"`},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(tt.body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.wantStatus, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), tt.wantBody)
	}
}
