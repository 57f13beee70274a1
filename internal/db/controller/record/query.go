package record

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/restcore/restcore/internal/db/models"
)

const (
	// DefaultRows is the page size when rows is not given.
	DefaultRows = 10
	// AllRows disables pagination.
	AllRows = -1
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// ValidUUID reports whether s is a RFC 4122 UUID of version 1 to 5.
func ValidUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

// ParseJSON decodes s, returning s unchanged when it is not valid JSON.
func ParseJSON(s string) any {
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}

	return out
}

// Sort orders a list by one column.
type Sort struct {
	Column string
	Desc   bool
}

// ListOptions are the list parameters of a collection request.
type ListOptions struct {
	// Rows is the page size, AllRows for no pagination.
	Rows int
	// Page is 1 based.
	Page int
	// Match holds equality filters. Array values filter with IN.
	Match map[string]any
	// Search holds case-insensitive substring filters joined with OR.
	Search map[string]any
	// SortBy is applied in order.
	SortBy []Sort
}

// ParseListOptions reads rows, page, match, search and sortBy through get, usually a
// request query accessor.
func ParseListOptions(get func(key string) string) (ListOptions, error) {
	opts := ListOptions{Rows: DefaultRows, Page: 1}

	var err error

	if v := get("rows"); v != "" {
		if opts.Rows, err = cast.ToIntE(v); err != nil || (opts.Rows < 1 && opts.Rows != AllRows) {
			return opts, errors.Wrapf(ErrInvalidQuery, "rows %q", v)
		}
	}

	if v := get("page"); v != "" {
		if opts.Page, err = cast.ToIntE(v); err != nil || opts.Page < 1 {
			return opts, errors.Wrapf(ErrInvalidQuery, "page %q", v)
		}
	}

	if opts.Match, err = objectParam(get, "match"); err != nil {
		return opts, err
	}

	if opts.Search, err = objectParam(get, "search"); err != nil {
		return opts, err
	}

	if v := get("sortBy"); v != "" {
		if opts.SortBy, err = ParseSort(v); err != nil {
			return opts, err
		}
	}

	return opts, nil
}

func objectParam(get func(key string) string, key string) (map[string]any, error) {
	v := get(key)
	if v == "" {
		return nil, nil
	}

	obj, ok := ParseJSON(v).(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidQuery, "%s must be a JSON object", key)
	}

	return obj, nil
}

// ParseSort reads a sort parameter: a JSON object {"col":"DESC"} whose key order is
// kept, an array [["col","DESC"],"other"] or a bare column name.
func ParseSort(raw string) ([]Sort, error) {
	raw = strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(raw, "{"):
		return parseSortObject(raw)
	case strings.HasPrefix(raw, "["):
		return parseSortArray(raw)
	default:
		return []Sort{{Column: raw}}, nil
	}
}

func parseSortObject(raw string) ([]Sort, error) {
	dec := json.NewDecoder(strings.NewReader(raw))

	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(ErrInvalidQuery, err.Error())
	}

	var out []Sort

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(ErrInvalidQuery, err.Error())
		}

		column, _ := tok.(string) //nolint:errcheck

		var direction string
		if err = dec.Decode(&direction); err != nil {
			return nil, errors.Wrapf(ErrInvalidQuery, "sort direction of %s", column)
		}

		s, err := newSort(column, direction)
		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(ErrInvalidQuery, err.Error())
	}

	return out, nil
}

func parseSortArray(raw string) ([]Sort, error) {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, errors.Wrap(ErrInvalidQuery, err.Error())
	}

	out := make([]Sort, 0, len(items))

	for _, item := range items {
		var (
			s   Sort
			err error
		)

		switch v := item.(type) {
		case string:
			s, err = newSort(v, "")
		case []any:
			if len(v) == 0 || len(v) > 2 { //nolint:mnd
				return nil, errors.Wrap(ErrInvalidQuery, "sort pair must be [column, direction]")
			}

			direction := ""
			if len(v) == 2 { //nolint:mnd
				direction = cast.ToString(v[1])
			}

			s, err = newSort(cast.ToString(v[0]), direction)
		default:
			return nil, errors.Wrap(ErrInvalidQuery, "sort item must be a column or a pair")
		}

		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, nil
}

func newSort(column, direction string) (Sort, error) {
	if column == "" {
		return Sort{}, errors.Wrap(ErrInvalidQuery, "empty sort column")
	}

	switch strings.ToUpper(direction) {
	case "", "ASC":
		return Sort{Column: column}, nil
	case "DESC":
		return Sort{Column: column, Desc: true}, nil
	default:
		return Sort{}, errors.Wrapf(ErrInvalidQuery, "sort direction %q", direction)
	}
}

// sortedKeys makes generated SQL deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// matchClause builds the equality filters of match.
func matchClause(m *models.Model, match map[string]any) ([]clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(match))

	for _, column := range sortedKeys(match) {
		f, ok := m.Column(column)
		if !ok {
			return nil, errors.Wrap(ErrUnknownColumn, column)
		}

		if f.IsJSON() {
			return nil, errors.Wrapf(ErrInvalidQuery, "can not match json column %s", column)
		}

		col := clause.Column{Name: column}

		if list, isList := match[column].([]any); isList {
			values := make([]any, 0, len(list))

			for _, item := range list {
				v, err := m.Coerce(column, item)
				if err != nil {
					return nil, errors.Wrap(ErrInvalidQuery, err.Error())
				}

				values = append(values, v)
			}

			exprs = append(exprs, clause.IN{Column: col, Values: values})

			continue
		}

		v, err := m.Coerce(column, match[column])
		if err != nil {
			return nil, errors.Wrap(ErrInvalidQuery, err.Error())
		}

		exprs = append(exprs, clause.Eq{Column: col, Value: v})
	}

	return exprs, nil
}

// searchClause builds the OR of case-insensitive substring matches of search.
func searchClause(m *models.Model, dialect string, search map[string]any) (clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(search))

	for _, column := range sortedKeys(search) {
		f, ok := m.Column(column)
		if !ok {
			return nil, errors.Wrap(ErrUnknownColumn, column)
		}

		exprs = append(exprs, clause.Expr{
			SQL:  likeSQL(dialect, f.IsText()),
			Vars: []any{clause.Column{Name: column}, "%" + cast.ToString(search[column]) + "%"},
		})
	}

	switch len(exprs) {
	case 0:
		return nil, nil
	case 1:
		return exprs[0], nil
	default:
		return clause.Or(exprs...), nil
	}
}

func likeSQL(dialect string, text bool) string {
	switch {
	case dialect == "postgres" && text:
		return "? ILIKE ?"
	case dialect == "postgres":
		return "CAST(? AS TEXT) ILIKE ?"
	case dialect == "mysql" && !text:
		return "CAST(? AS CHAR) LIKE ?"
	default:
		return "? LIKE ?"
	}
}

// apply adds the filters and ordering of opts to q.
func apply(q *gorm.DB, m *models.Model, opts ListOptions) (*gorm.DB, error) {
	exprs, err := matchClause(m, opts.Match)
	if err != nil {
		return nil, err
	}

	search, err := searchClause(m, q.Dialector.Name(), opts.Search)
	if err != nil {
		return nil, err
	}

	if search != nil {
		exprs = append(exprs, search)
	}

	if len(exprs) > 0 {
		q = q.Clauses(clause.Where{Exprs: exprs})
	}

	for _, s := range opts.SortBy {
		if !m.HasColumn(s.Column) {
			return nil, errors.Wrap(ErrUnknownColumn, s.Column)
		}
	}

	return q, nil
}

func order(q *gorm.DB, sorts []Sort) *gorm.DB {
	for _, s := range sorts {
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: s.Column}, Desc: s.Desc})
	}

	return q
}
