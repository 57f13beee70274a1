package core

import (
	"github.com/pkg/errors"

	"github.com/restcore/restcore/internal/db/models"
)

// Reload recompiles a changed model file and synchronises its table. Routes are
// mounted at Init only, so a model that was not loaded before gets no routes until
// the next start.
func (c *Core) Reload(file string) (*models.Model, error) {
	m, err := models.CompileFile(c.db, file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reload %s", file)
	}

	if _, ok := c.registry.Get(m.Name); !ok {
		c.log.Warn().Str("model", m.Name).Msg("new model loaded, restart to serve its routes")
	}

	if err = models.Sync(c.db, m); err != nil {
		return nil, err
	}

	c.registry.Replace(m)

	c.log.Info().Str("model", m.Name).Str("table", m.Table).Msg("model reloaded")

	return m, nil
}
