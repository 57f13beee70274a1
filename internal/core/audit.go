package core

import (
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/db/hooks"
	"github.com/restcore/restcore/internal/db/models"
	"github.com/restcore/restcore/internal/logger"
)

// auditHooks are the hooks logged by the audit service.
var auditHooks = []hooks.Hook{hooks.AfterCreate, hooks.AfterUpdate, hooks.AfterDestroy}

func builtinServices(cfg *config.Config) []Service {
	var out []Service

	if cfg.Services.Audit {
		out = append(out, Audit)
	}

	return out
}

// Audit logs every create, update and destroy of the models. An entity opts out
// with "audit: false" in its config file.
func Audit(_ fiber.Router, reg *models.Registry, configs map[string]any) error {
	l := logger.Component("audit")

	return reg.Each(func(m *models.Model) error {
		if enabled, ok := cast.ToStringMap(configs[m.Name])["audit"]; ok && !cast.ToBool(enabled) {
			l.Debug().Str("entity", m.Name).Msg("audit disabled")

			return nil
		}

		for _, hook := range auditHooks {
			subscribe := Subscribe(m.Name, string(hook))
			if subscribe == nil {
				continue
			}

			entity, key, h := m.Name, m.Key, hook

			subscribe(func(record map[string]any, _ *gorm.DB) error {
				l.Info().
					Str("entity", entity).
					Str("hook", string(h)).
					Interface("key", record[key]).
					Msg("record changed")

				return nil
			})
		}

		return nil
	})
}
