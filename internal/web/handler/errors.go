package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/restcore/restcore/internal/db/controller/record"
	fiberadapter "github.com/restcore/restcore/internal/logger/adapter/fiber"
)

// ErrNilOptions is returned by Init when Options.Valid fails.
var ErrNilOptions = errors.New(ErrNilOptionsFatalLogMsg)

// Status maps an operation error to its HTTP status.
func Status(err error) int {
	var fe *fiber.Error

	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, record.ErrRecordNotFound), errors.Is(err, record.ErrUnknownModel):
		return fiber.StatusNotFound
	case errors.Is(err, record.ErrDuplicate):
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}

// SendError logs err with the request id and renders {"error": message}.
func SendError(c *fiber.Ctx, err error) error {
	status := Status(err)

	log.Error().
		Err(err).
		Str("requestID", fiberadapter.RequestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Msg("request failed")

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ParseBody decodes a JSON object body. An empty body is an empty object.
func ParseBody(c *fiber.Ctx) (map[string]any, error) {
	body := map[string]any{}

	raw := c.Body()
	if len(raw) == 0 {
		return body, nil
	}

	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, errors.Wrap(record.ErrInvalidBody, err.Error())
	}

	return body, nil
}

// Query adapts the fiber query accessor to record.ParseListOptions.
func Query(c *fiber.Ctx) func(key string) string {
	return func(key string) string {
		return c.Query(key)
	}
}
