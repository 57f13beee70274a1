// Package crud serves the generated CRUD routes of a model without a custom router.
package crud

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/restcore/restcore/internal/db/controller/record"
	"github.com/restcore/restcore/internal/web/handler"
)

// Operation names used as metric labels.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpPut    = "put"
	OpPatch  = "patch"
	OpDelete = "delete"
)

var operations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "restcore_crud_operations_total",
		Help: "Number of generated CRUD operations by entity, operation and response status.",
	},
	[]string{"entity", "operation", "status"},
)

// Service handles the generated routes of one entity.
type Service struct {
	entity string
	opts   handler.Options
}

// New returns the CRUD service of entity.
func New(entity string) *Service {
	return &Service{entity: entity}
}

// Entity returns the served entity.
func (s *Service) Entity() string {
	return s.entity
}

// Init stores the handler options.
func (s *Service) Init(opts handler.Options) error {
	if !opts.Valid() {
		return handler.ErrNilOptions
	}

	s.opts = opts

	return nil
}

// Register adds the CRUD routes to router.
func (s *Service) Register(router fiber.Router) {
	router.Get(handler.RootPath, s.List)
	router.Post(handler.RootPath, s.Create)
	router.Get(handler.IDPath, s.Get)
	router.Put(handler.IDPath, s.Put)
	router.Patch(handler.IDPath, s.Patch)
	router.Delete(handler.IDPath, s.Delete)
}

// helper is resolved per request so reloaded models are picked up.
func (s *Service) helper() (*record.Helper, error) {
	return record.New(s.opts.DB, s.opts.Models, s.opts.Hooks, s.entity)
}

func (s *Service) respond(c *fiber.Ctx, operation string, payload any, err error) error {
	if err != nil {
		operations.WithLabelValues(s.entity, operation, strconv.Itoa(handler.Status(err))).Inc()

		return handler.SendError(c, err)
	}

	operations.WithLabelValues(s.entity, operation, strconv.Itoa(fiber.StatusOK)).Inc()

	return c.JSON(payload)
}

// List handles GET / with rows, page, match, search and sortBy.
func (s *Service) List(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return s.respond(c, OpList, nil, err)
	}

	opts, err := record.ParseListOptions(handler.Query(c))
	if err != nil {
		return s.respond(c, OpList, nil, err)
	}

	result, err := h.List(c.UserContext(), opts)

	return s.respond(c, OpList, result, err)
}

// Get handles GET /:id with an optional populate parameter.
func (s *Service) Get(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return s.respond(c, OpGet, nil, err)
	}

	populate, err := record.ParsePopulate(c.Query("populate"))
	if err != nil {
		return s.respond(c, OpGet, nil, err)
	}

	result, err := h.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.respond(c, OpGet, nil, err)
	}

	for _, p := range populate {
		result = h.Populate(c.UserContext(), result, p)
	}

	return s.respond(c, OpGet, result, nil)
}

// Create handles POST /.
func (s *Service) Create(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return s.respond(c, OpCreate, nil, err)
	}

	body, err := handler.ParseBody(c)
	if err != nil {
		return s.respond(c, OpCreate, nil, err)
	}

	result, err := h.Post(c.UserContext(), body)

	return s.respond(c, OpCreate, result, err)
}

// Put handles PUT /:id, creating the record with ?upsert=true.
func (s *Service) Put(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return s.respond(c, OpPut, nil, err)
	}

	body, err := handler.ParseBody(c)
	if err != nil {
		return s.respond(c, OpPut, nil, err)
	}

	result, err := h.Put(c.UserContext(), c.Params("id"), body, c.QueryBool("upsert"))

	return s.respond(c, OpPut, result, err)
}

// Patch handles PATCH /:id.
func (s *Service) Patch(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return s.respond(c, OpPatch, nil, err)
	}

	body, err := handler.ParseBody(c)
	if err != nil {
		return s.respond(c, OpPatch, nil, err)
	}

	result, err := h.Patch(c.UserContext(), c.Params("id"), body)

	return s.respond(c, OpPatch, result, err)
}

// Delete handles DELETE /:id and answers {"count": n}.
func (s *Service) Delete(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return s.respond(c, OpDelete, nil, err)
	}

	count, err := h.Delete(c.UserContext(), c.Params("id"))

	return s.respond(c, OpDelete, fiber.Map{"count": count}, err)
}
