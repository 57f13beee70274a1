package daemon

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/restcore/restcore/internal/config"
	"github.com/restcore/restcore/internal/core"
	"github.com/restcore/restcore/internal/db/controller/record"
	"github.com/restcore/restcore/internal/files"
)

// ErrInvalidSeed is returned for a seed file that is not a list of rows.
var ErrInvalidSeed = errors.New("seed file must be a list of rows")

// seed inserts the rows of seeds/<entity>.yaml into empty tables. Rows go through the
// record helper so defaults, password hashing and hooks apply.
func seed(cfg *config.Config, db *gorm.DB, c *core.Core) error {
	list, err := files.YAMLFiles(cfg.Paths.Seeds)
	if err != nil {
		return err //nolint:wrapcheck
	}

	ctx := context.Background()

	for _, file := range list {
		entity := files.EntityName(file)

		h, errHelper := record.New(db, c.Models(), c.Hooks(), entity)
		if errHelper != nil {
			log.Warn().Err(errHelper).Str("file", file).Msg("seed file without model skipped")

			continue
		}

		var count int64
		if err = db.WithContext(ctx).Table(h.Model().Table).Count(&count).Error; err != nil {
			return errors.Wrapf(err, "failed to count %s", entity)
		}

		if count > 0 {
			continue
		}

		raw, errParse := files.ParseYAML(file)
		if errParse != nil {
			return errParse //nolint:wrapcheck
		}

		rows, ok := raw.([]any)
		if !ok {
			return errors.Wrap(ErrInvalidSeed, file)
		}

		err = record.StartTransaction(ctx, db, func(tx *gorm.DB) error {
			th := h.WithTx(tx)

			for _, row := range rows {
				body, errCast := cast.ToStringMapE(row)
				if errCast != nil {
					return errors.Wrap(ErrInvalidSeed, errCast.Error())
				}

				if _, errPost := th.Post(ctx, body); errPost != nil {
					return errPost
				}
			}

			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "failed to seed %s", entity)
		}

		log.Info().Str("entity", entity).Int("rows", len(rows)).Msg("table seeded")
	}

	return nil
}
