// Package user serves /v1/user in place of the generated user routes: listing and
// reading users, registration, password login and table statistics.
package user

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/api"
	"github.com/restcore/restcore/internal/db/controller/record"
	"github.com/restcore/restcore/internal/db/models"
	"github.com/restcore/restcore/internal/web/handler"
)

const (
	// Entity is the model served by this router.
	Entity = "user"

	columnEmail    = "email"
	columnPassword = "password"
)

var (
	// ErrModelMismatch is returned when the user model lacks the login columns.
	ErrModelMismatch = errors.New("user model needs an email column and a password column")
	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
)

// Service is the user router.
type Service struct {
	opts handler.Options
}

// Handler is the registered user router.
var Handler = Service{}

func init() {
	api.Register(&Handler)
	models.OnLoaded(Entity, CheckModel)
}

// CheckModel verifies the loaded user model can serve logins.
func CheckModel(_ *gorm.DB, reg *models.Registry) error {
	m, ok := reg.Get(Entity)
	if !ok {
		return errors.Wrap(record.ErrUnknownModel, Entity)
	}

	password, hasPassword := m.Column(columnPassword)
	if !m.HasColumn(columnEmail) || !hasPassword || password.Type != models.TypePassword {
		return ErrModelMismatch
	}

	return nil
}

// Init stores the handler options.
func (s *Service) Init(opts handler.Options) error {
	if !opts.Valid() {
		return handler.ErrNilOptions
	}

	s.opts = opts

	return nil
}

// Register adds the user routes.
func (s *Service) Register(router fiber.Router) {
	router.Get(handler.RootPath, s.List)
	router.Post(handler.RootPath, s.Create)
	router.Get("/stats", s.Stats)
	router.Post("/login", s.Login)
	router.Get(handler.IDPath, s.Get)
}

func (s *Service) helper() (*record.Helper, error) {
	return record.New(s.opts.DB, s.opts.Models, s.opts.Hooks, Entity)
}

// List returns a page of users, passwords hidden.
func (s *Service) List(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return handler.SendError(c, err)
	}

	opts, err := record.ParseListOptions(handler.Query(c))
	if err != nil {
		return handler.SendError(c, err)
	}

	result, err := h.List(c.UserContext(), opts)
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(result)
}

// Get returns one user.
func (s *Service) Get(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return handler.SendError(c, err)
	}

	result, err := h.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.JSON(result)
}

// Create registers a user. The password is hashed before it is stored.
func (s *Service) Create(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return handler.SendError(c, err)
	}

	body, err := handler.ParseBody(c)
	if err != nil {
		return handler.SendError(c, err)
	}

	result, err := h.Post(c.UserContext(), body)
	if err != nil {
		return handler.SendError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies an email and password pair and returns the user.
func (s *Service) Login(c *fiber.Ctx) error {
	var creds credentials
	if err := c.BodyParser(&creds); err != nil {
		return handler.SendError(c, errors.Wrap(record.ErrInvalidBody, err.Error()))
	}

	h, err := s.helper()
	if err != nil {
		return handler.SendError(c, err)
	}

	found, err := h.FindBy(c.UserContext(), columnEmail, creds.Email)
	if errors.Is(err, record.ErrRecordNotFound) {
		return handler.SendError(c, ErrInvalidCredentials)
	}

	if err != nil {
		return handler.SendError(c, err)
	}

	if !h.Model().VerifyPassword(found, columnPassword, creds.Password) {
		return handler.SendError(c, ErrInvalidCredentials)
	}

	log.Info().Str("email", creds.Email).Msg("user logged in")

	return c.JSON(h.Render(found))
}

// Stats returns the number of users.
func (s *Service) Stats(c *fiber.Ctx) error {
	h, err := s.helper()
	if err != nil {
		return handler.SendError(c, err)
	}

	query := fmt.Sprintf("SELECT COUNT(*) AS total FROM %s", s.opts.DB.Statement.Quote(h.Model().Table))

	rows, err := record.Raw(c.UserContext(), s.opts.DB, query)
	if err != nil {
		return handler.SendError(c, err)
	}

	if len(rows) == 0 {
		return c.JSON(fiber.Map{"total": 0})
	}

	return c.JSON(rows[0])
}
