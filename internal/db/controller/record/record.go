// Package record provides the generic CRUD operations of compiled models.
package record

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/restcore/restcore/internal/db/hooks"
	"github.com/restcore/restcore/internal/db/models"
)

// ListResult is the find-and-count result of List.
type ListResult struct {
	Count int64            `json:"count"`
	Rows  []map[string]any `json:"rows"`
}

// Helper runs the CRUD operations of one model. Records are looked up by the model key.
type Helper struct {
	db       *gorm.DB
	model    *models.Model
	registry *models.Registry
	bus      *hooks.Bus
}

// New returns the helper of entity. bus may be nil.
func New(db *gorm.DB, registry *models.Registry, bus *hooks.Bus, entity string) (*Helper, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	m, ok := registry.Get(entity)
	if !ok {
		return nil, errors.Wrap(ErrUnknownModel, entity)
	}

	return &Helper{db: db, model: m, registry: registry, bus: bus}, nil
}

// Model returns the model of the helper.
func (h *Helper) Model() *models.Model {
	return h.model
}

// WithTx returns a copy of the helper running on tx.
func (h *Helper) WithTx(tx *gorm.DB) *Helper {
	c := *h
	c.db = tx

	return &c
}

func (h *Helper) table(ctx context.Context) *gorm.DB {
	return h.db.WithContext(ctx).Table(h.model.Table)
}

// parseKey converts a path id to the key column type.
func (h *Helper) parseKey(id string) (any, error) {
	f, _ := h.model.Column(h.model.Key)
	if f.Type == models.TypeUUID && !ValidUUID(id) {
		return nil, errors.Wrapf(ErrInvalidQuery, "invalid key %q", id)
	}

	v, err := h.model.Coerce(h.model.Key, id)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidQuery, "invalid key %q", id)
	}

	return v, nil
}

// keyValue is parseKey for lookups: an id that can not be a key matches no row.
func (h *Helper) keyValue(id string) (any, error) {
	v, err := h.parseKey(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	return v, nil
}

// checkBody rejects uuid values that are not uuids and client supplied password hashes.
func (h *Helper) checkBody(body map[string]any) error {
	for _, f := range h.model.Fields() {
		s, ok := body[f.Name].(string)
		if !ok {
			continue
		}

		switch {
		case f.Type == models.TypeUUID && !ValidUUID(s):
			return errors.Wrapf(ErrInvalidBody, "%s is not a uuid", f.Name)
		case f.Type == models.TypePassword && models.IsHashed(s):
			return errors.Wrapf(ErrInvalidBody, "%s must be a plaintext password", f.Name)
		}
	}

	return nil
}

// FindBy returns the first record whose column equals value.
func (h *Helper) FindBy(ctx context.Context, column string, value any) (any, error) {
	if !h.model.HasColumn(column) {
		return nil, errors.Wrap(ErrUnknownColumn, column)
	}

	record := h.model.New()

	err := h.table(ctx).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).Take(record).Error
	if err != nil {
		return nil, translate(err)
	}

	return record, nil
}

// Find returns the record with key id.
func (h *Helper) Find(ctx context.Context, id string) (any, error) {
	v, err := h.keyValue(id)
	if err != nil {
		return nil, err
	}

	return h.FindBy(ctx, h.model.Key, v)
}

// Render returns the API representation of a record, hidden columns removed.
func (h *Helper) Render(record any) map[string]any {
	return h.model.ToMap(record, false)
}

// Get returns one record by key.
func (h *Helper) Get(ctx context.Context, id string) (map[string]any, error) {
	record, err := h.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	return h.Render(record), nil
}

// Post creates a row from body. Unknown keys are ignored.
func (h *Helper) Post(ctx context.Context, body map[string]any) (map[string]any, error) {
	if err := h.checkBody(body); err != nil {
		return nil, err
	}

	record := h.model.New()

	if err := h.model.Assign(record, body); err != nil {
		return nil, translate(err)
	}

	if err := h.model.Prepare(record, true); err != nil {
		return nil, err
	}

	if err := h.table(ctx).Create(record).Error; err != nil {
		return nil, translate(err)
	}

	return h.Render(record), nil
}

// writable returns the columns of body that are stored on update.
func (h *Helper) writable(body map[string]any) []string {
	cols := make([]string, 0, len(body))

	for _, f := range h.model.Fields() {
		if _, ok := body[f.Name]; !ok {
			continue
		}

		cols = append(cols, f.Name)
	}

	return cols
}

// withoutPrimaryKey drops primary key columns from body.
func (h *Helper) withoutPrimaryKey(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))

	for k, v := range body {
		if f, ok := h.model.Column(k); ok && f.PrimaryKey {
			continue
		}

		out[k] = v
	}

	return out
}

// save writes cols of an already loaded record.
func (h *Helper) save(ctx context.Context, record any, cols []string) error {
	if len(cols) == 0 {
		return nil
	}

	if err := h.model.Prepare(record, false); err != nil {
		return err
	}

	return translate(h.table(ctx).Select(cols).Updates(record).Error)
}

// Update replaces the columns given in body on the row with key id.
func (h *Helper) Update(ctx context.Context, id string, body map[string]any) (map[string]any, error) {
	record, err := h.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	body = h.withoutPrimaryKey(body)

	if err = h.checkBody(body); err != nil {
		return nil, err
	}

	if err = h.model.Assign(record, body); err != nil {
		return nil, translate(err)
	}

	if err = h.save(ctx, record, h.writable(body)); err != nil {
		return nil, err
	}

	return h.Render(record), nil
}

// Put updates the row with key id. With upsert a missing row is created instead, keyed
// by id unless body sets the key, and afterUpsert subscribers are notified. An id that
// can not be a key is rejected with ErrInvalidQuery.
func (h *Helper) Put(ctx context.Context, id string, body map[string]any, upsert bool) (map[string]any, error) {
	if !upsert {
		return h.Update(ctx, id, body)
	}

	// a missing row is created under id, so id must be a valid key
	if _, err := h.parseKey(id); err != nil {
		return nil, err
	}

	var out map[string]any

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		th := h.WithTx(tx)

		var err error

		out, err = th.Update(ctx, id, body)
		if errors.Is(err, ErrRecordNotFound) {
			created := make(map[string]any, len(body)+1)
			for k, v := range body {
				created[k] = v
			}

			if _, ok := created[h.model.Key]; !ok {
				created[h.model.Key] = id
			}

			out, err = th.Post(ctx, created)
		}

		if err != nil {
			return err
		}

		if h.bus != nil {
			return h.bus.Emit(tx, h.model.Name, hooks.AfterUpsert, out)
		}

		return nil
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return out, nil
}

// Patch updates the row with key id. The data key is shallow merged into the
// existing payload, every other known key replaces its column.
func (h *Helper) Patch(ctx context.Context, id string, body map[string]any) (map[string]any, error) {
	record, err := h.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	body = h.withoutPrimaryKey(body)

	if err = h.checkBody(body); err != nil {
		return nil, err
	}

	for key, value := range body {
		if !h.model.HasColumn(key) {
			continue
		}

		if key == models.ColumnData {
			payload, ok := value.(map[string]any)
			if !ok && value != nil {
				return nil, errors.Wrap(ErrInvalidBody, "data must be an object")
			}

			if err = h.PatchData(record, payload); err != nil {
				return nil, err
			}

			continue
		}

		if err = h.model.Set(record, key, value); err != nil {
			return nil, translate(err)
		}
	}

	if err = h.save(ctx, record, h.writable(body)); err != nil {
		return nil, err
	}

	return h.Render(record), nil
}

// PatchData shallow merges payload into the data column of record.
func (h *Helper) PatchData(record any, payload map[string]any) error {
	if !h.model.HasColumn(models.ColumnData) {
		return errors.Wrap(ErrUnknownColumn, models.ColumnData)
	}

	current, _ := h.model.Value(record, models.ColumnData).(map[string]any) //nolint:errcheck

	merged := make(map[string]any, len(current)+len(payload))
	for k, v := range current {
		merged[k] = v
	}

	for k, v := range payload {
		merged[k] = v
	}

	return translate(h.model.Set(record, models.ColumnData, merged))
}

// Delete removes the row with key id and returns the number of deleted rows.
// A missing row deletes nothing.
func (h *Helper) Delete(ctx context.Context, id string) (int64, error) {
	record, err := h.Find(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	result := h.table(ctx).Delete(record)
	if result.Error != nil {
		return 0, translate(result.Error)
	}

	return result.RowsAffected, nil
}

// List returns one page of rows matching opts and the total count.
func (h *Helper) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	q, err := apply(h.table(ctx), h.model, opts)
	if err != nil {
		return nil, err
	}

	var count int64
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, translate(err)
	}

	q = order(q.Session(&gorm.Session{}), opts.SortBy)

	if opts.Rows != AllRows {
		page := max(opts.Page, 1)
		q = q.Limit(opts.Rows).Offset((page - 1) * opts.Rows)
	}

	rows := h.model.NewSlice()
	if err = q.Find(rows).Error; err != nil {
		return nil, translate(err)
	}

	return &ListResult{Count: count, Rows: h.model.ToMaps(rows, false)}, nil
}
