package record

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/clause"
)

// PopulateOptions replaces the key (or key list) found at Path with the rows of Ref.
type PopulateOptions struct {
	// Path is a dot path into the record, e.g. author or data.tags.
	Path string `json:"path"`
	// Ref is the referenced entity.
	Ref string `json:"ref"`
	// Select restricts the columns of the populated rows.
	Select []string `json:"select"`
	// Populate is applied to every populated row.
	Populate *PopulateOptions `json:"populate"`
}

// ParsePopulate reads a populate parameter: one options object or an array of them.
func ParsePopulate(raw string) ([]PopulateOptions, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "[") {
		var out []PopulateOptions
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, errors.Wrap(ErrInvalidQuery, err.Error())
		}

		return out, nil
	}

	var one PopulateOptions
	if err := json.Unmarshal([]byte(raw), &one); err != nil {
		return nil, errors.Wrap(ErrInvalidQuery, err.Error())
	}

	return []PopulateOptions{one}, nil
}

// Populate resolves opts on a rendered record. Failures are logged and leave the
// record unchanged.
func (h *Helper) Populate(ctx context.Context, record map[string]any, opts PopulateOptions) map[string]any {
	if err := h.populate(ctx, record, opts); err != nil {
		log.Error().Err(err).Str("model", h.model.Name).Str("path", opts.Path).Msg("populate failed")
	}

	return record
}

func (h *Helper) populate(ctx context.Context, record map[string]any, opts PopulateOptions) error {
	if opts.Path == "" || opts.Ref == "" {
		return errors.Wrap(ErrInvalidQuery, "populate needs path and ref")
	}

	value, ok := getPath(record, opts.Path)
	if !ok || value == nil {
		return nil
	}

	ref, err := New(h.db, h.registry, h.bus, opts.Ref)
	if err != nil {
		return err
	}

	for _, column := range opts.Select {
		if !ref.model.HasColumn(column) {
			return errors.Wrap(ErrUnknownColumn, column)
		}
	}

	list, isList := value.([]any)
	if !isList {
		list = []any{value}
	}

	keys := make([]any, 0, len(list))

	for _, item := range list {
		v, errCoerce := ref.model.Coerce(ref.model.Key, item)
		if errCoerce != nil {
			return errors.Wrap(ErrInvalidQuery, errCoerce.Error())
		}

		keys = append(keys, v)
	}

	q := ref.table(ctx).Where(clause.IN{Column: clause.Column{Name: ref.model.Key}, Values: keys})
	if len(opts.Select) > 0 {
		q = q.Select(opts.Select)
	}

	rows := ref.model.NewSlice()
	if err = q.Find(rows).Error; err != nil {
		return translate(err)
	}

	populated := make([]any, 0, len(list))

	for _, row := range ref.model.ToMaps(rows, false) {
		if len(opts.Select) > 0 {
			row = only(row, opts.Select)
		}

		if opts.Populate != nil {
			row = ref.Populate(ctx, row, *opts.Populate)
		}

		populated = append(populated, row)
	}

	switch {
	case isList:
		setPath(record, opts.Path, populated)
	case len(populated) > 0:
		setPath(record, opts.Path, populated[0])
	default:
		setPath(record, opts.Path, nil)
	}

	return nil
}

func only(row map[string]any, columns []string) map[string]any {
	out := make(map[string]any, len(columns))

	for _, c := range columns {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}

	return out
}

func getPath(m map[string]any, path string) (any, bool) {
	var cur any = m

	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}

	return cur, true
}

func setPath(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := m

	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}

		cur = next
	}

	cur[parts[len(parts)-1]] = value
}
