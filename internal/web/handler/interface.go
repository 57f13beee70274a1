package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/db/hooks"
	"github.com/restcore/restcore/internal/db/models"
)

// Options is handed to every route handler service on Init.
type Options struct {
	Config *config.Config
	DB     *gorm.DB
	Models *models.Registry
	Hooks  *hooks.Bus
}

// Valid reports whether the options carry everything a handler needs.
func (o Options) Valid() bool {
	return o.Config != nil && o.DB != nil && o.Models != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(opts Options) error
	Register(router fiber.Router)
}
