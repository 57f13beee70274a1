package models

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gorm.io/gorm/schema"
)

const (
	// ColumnID is the implicit primary key column.
	ColumnID = "id"
	// ColumnCreatedAt is the managed creation timestamp column.
	ColumnCreatedAt = "created_at"
	// ColumnUpdatedAt is the managed update timestamp column.
	ColumnUpdatedAt = "updated_at"
	// ColumnData is the free-form JSON payload column merged by PATCH.
	ColumnData = "data"

	defaultStringSize = 255
	uuidSize          = 36
	decimalPrecision  = 10
	decimalScale      = 2
)

var (
	int64Type = reflect.TypeOf(int64(0))
	floatType = reflect.TypeOf(float64(0))
	boolType  = reflect.TypeOf(false)
	timeType  = reflect.TypeOf(time.Time{})
	strType   = reflect.TypeOf("")
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
)

// Model is a compiled definition: a struct type gorm can map, plus the column metadata
// needed to move values between request bodies, records and responses.
type Model struct {
	// Name is the entity name, used for routes, hooks and seeds.
	Name string
	// Table is the database table, schema qualified when a schema is set.
	Table string
	// Schema is the database schema or "" for the default one.
	Schema string
	// Key is the column used to look up single records.
	Key string
	// PrimaryKey is the primary key column.
	PrimaryKey string
	// Dialect is the gorm dialector name the type was compiled for.
	Dialect string
	// Definition is the source definition.
	Definition *Definition
	// Type is the generated struct type.
	Type reflect.Type

	fields []Field
	index  map[string]int
}

// Compile builds the struct type of def for the given dialect. namer derives the
// table name when the definition does not set one.
func Compile(def *Definition, dialect string, namer schema.Namer) (*Model, error) {
	if def == nil {
		return nil, errors.Wrap(ErrInvalidDefinition, "nil definition")
	}

	fields, err := expandFields(def)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Name:       def.Name,
		Schema:     def.Schema,
		Dialect:    dialect,
		Definition: def,
		fields:     fields,
		index:      make(map[string]int, len(fields)),
	}

	structFields := make([]reflect.StructField, 0, len(fields))
	goNames := make(map[string]struct{}, len(fields))

	for i, f := range fields {
		name := goName(f.Name)
		for n := 2; ; n++ {
			if _, taken := goNames[name]; !taken {
				break
			}

			name = goName(f.Name) + strconv.Itoa(n)
		}

		goNames[name] = struct{}{}

		structFields = append(structFields, reflect.StructField{
			Name: name,
			Type: goType(f),
			Tag:  reflect.StructTag(`gorm:"` + gormTag(f, dialect) + `" json:"` + f.Name + `"`),
		})

		m.index[f.Name] = i

		if f.PrimaryKey && m.PrimaryKey == "" {
			m.PrimaryKey = f.Name
		}
	}

	m.Type = reflect.StructOf(structFields)

	m.Table = def.Table
	if m.Table == "" {
		m.Table = namer.TableName(goName(def.Name))
	}

	if def.Schema != "" && !strings.Contains(m.Table, ".") {
		m.Table = def.Schema + "." + m.Table
	}

	switch {
	case def.Key != "":
		if _, ok := m.index[def.Key]; !ok {
			return nil, errors.Wrapf(ErrInvalidDefinition, "%s: key %s is not a field", def.Name, def.Key)
		}

		m.Key = def.Key
	case m.HasColumn(ColumnID):
		m.Key = ColumnID
	default:
		m.Key = m.PrimaryKey
	}

	return m, nil
}

// expandFields adds the implicit primary key and timestamp columns.
func expandFields(def *Definition) ([]Field, error) {
	fields := make([]Field, 0, len(def.Fields)+3) //nolint:mnd
	hasPrimaryKey := false

	for _, f := range def.Fields {
		if f.PrimaryKey {
			hasPrimaryKey = true
		}
	}

	notNull := false

	if !hasPrimaryKey {
		if id, ok := def.Field(ColumnID); ok {
			if id.AllowNull != nil && *id.AllowNull {
				return nil, errors.Wrapf(ErrInvalidDefinition, "%s: column id can not be nullable", def.Name)
			}
		} else {
			fields = append(fields, Field{
				Name:          ColumnID,
				Type:          TypeBigInt,
				PrimaryKey:    true,
				AutoIncrement: true,
			})
		}
	}

	for _, f := range def.Fields {
		if !hasPrimaryKey && f.Name == ColumnID {
			f.PrimaryKey = true
		}

		if f.Type == TypePassword {
			f.Hidden = true
		}

		fields = append(fields, f)
	}

	if def.WithTimestamps() {
		for _, name := range []string{ColumnCreatedAt, ColumnUpdatedAt} {
			if _, ok := def.Field(name); ok {
				continue
			}

			fields = append(fields, Field{Name: name, Type: TypeDateTime, AllowNull: &notNull})
		}
	}

	return fields, nil
}

// goName converts a column name to an exported Go identifier: created_at -> CreatedAt.
func goName(column string) string {
	var b strings.Builder

	for _, part := range strings.FieldsFunc(column, func(r rune) bool { return r == '_' || r == '-' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}

	name := b.String()
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		// exported field names start with an upper case letter: _1 -> F1
		name = "F" + name
	}

	return name
}

// baseType is the Go type of a non-null value of the field.
func baseType(f Field) reflect.Type {
	switch f.Type { //nolint:exhaustive
	case TypeInteger, TypeBigInt:
		return int64Type
	case TypeFloat, TypeDouble, TypeDecimal:
		return floatType
	case TypeBoolean:
		return boolType
	case TypeDate, TypeDateTime:
		return timeType
	case TypeJSON, TypeJSONB:
		return anyType
	default:
		return strType
	}
}

func goType(f Field) reflect.Type {
	t := baseType(f)
	if t == anyType || !f.Nullable() {
		return t
	}

	return reflect.PointerTo(t)
}

// gormTag builds the gorm struct tag of a field for the given dialect.
func gormTag(f Field, dialect string) string {
	tags := []string{"column:" + f.Name}

	switch f.Type { //nolint:exhaustive
	case TypeString, TypePassword:
		size := f.Size
		if size == 0 {
			size = defaultStringSize
		}

		tags = append(tags, "size:"+strconv.Itoa(size))
	case TypeText:
		tags = append(tags, "type:text")
	case TypeInteger:
		tags = append(tags, "size:32")
	case TypeFloat:
		tags = append(tags, "size:32")
	case TypeDouble:
		tags = append(tags, "size:64")
	case TypeDecimal:
		precision, scale := f.Precision, f.Scale
		if precision == 0 {
			precision, scale = decimalPrecision, decimalScale
		}

		tags = append(tags, "precision:"+strconv.Itoa(precision), "scale:"+strconv.Itoa(scale))
	case TypeDate:
		tags = append(tags, "type:date")
	case TypeUUID:
		if dialect == "postgres" {
			tags = append(tags, "type:uuid")
		} else {
			tags = append(tags, "size:"+strconv.Itoa(uuidSize))
		}
	case TypeJSON, TypeJSONB:
		tags = append(tags, "serializer:json", "type:"+jsonColumnType(f.Type, dialect))
	}

	if f.PrimaryKey {
		tags = append(tags, "primaryKey")
	}

	if f.AutoIncrement {
		tags = append(tags, "autoIncrement")
	} else if f.PrimaryKey {
		tags = append(tags, "autoIncrement:false")
	}

	if f.Unique {
		tags = append(tags, "uniqueIndex")
	} else if f.Index {
		tags = append(tags, "index")
	}

	if !f.Nullable() {
		tags = append(tags, "not null")
	}

	switch f.Name {
	case ColumnCreatedAt:
		tags = append(tags, "autoCreateTime")
	case ColumnUpdatedAt:
		tags = append(tags, "autoUpdateTime")
	}

	if f.Default != "" && f.Default != DefaultUUIDv4 && f.Default != DefaultNow {
		tags = append(tags, "default:"+f.Default)
	}

	return strings.Join(tags, ";")
}

func jsonColumnType(t FieldType, dialect string) string {
	switch dialect {
	case "postgres":
		return string(t)
	case "mysql":
		return "json"
	default:
		return "text"
	}
}

// Fields returns all columns in declaration order, implicit ones included.
func (m *Model) Fields() []Field {
	return m.fields
}

// Columns returns all column names in declaration order.
func (m *Model) Columns() []string {
	out := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f.Name)
	}

	return out
}

// Column returns the field of a column.
func (m *Model) Column(name string) (Field, bool) {
	i, ok := m.index[name]
	if !ok {
		return Field{}, false
	}

	return m.fields[i], true
}

// HasColumn reports whether name is a column of the model.
func (m *Model) HasColumn(name string) bool {
	_, ok := m.index[name]

	return ok
}

// New returns a pointer to a new zero record.
func (m *Model) New() any {
	return reflect.New(m.Type).Interface()
}

// NewSlice returns a pointer to an empty record slice.
func (m *Model) NewSlice() any {
	return reflect.New(reflect.SliceOf(m.Type)).Interface()
}

func (m *Model) fieldValue(record any, column string) (reflect.Value, bool) {
	i, ok := m.index[column]
	if !ok {
		return reflect.Value{}, false
	}

	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct || v.Type() != m.Type {
		return reflect.Value{}, false
	}

	return v.Field(i), true
}

// Value returns the value of a column, nil for NULL or unknown columns.
func (m *Model) Value(record any, column string) any {
	fv, ok := m.fieldValue(record, column)
	if !ok {
		return nil
	}

	return plain(fv)
}

func plain(fv reflect.Value) any {
	switch fv.Kind() { //nolint:exhaustive
	case reflect.Pointer, reflect.Interface:
		if fv.IsNil() {
			return nil
		}

		if fv.Kind() == reflect.Pointer {
			return fv.Elem().Interface()
		}
	}

	return fv.Interface()
}

// IsZero reports whether a column holds its zero value or NULL.
func (m *Model) IsZero(record any, column string) bool {
	fv, ok := m.fieldValue(record, column)

	return !ok || fv.IsZero()
}

// Set converts value to the column type and stores it in record.
func (m *Model) Set(record any, column string, value any) error {
	fv, ok := m.fieldValue(record, column)
	if !ok {
		return errors.Wrap(ErrUnknownColumn, column)
	}

	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))

		return nil
	}

	f := m.fields[m.index[column]]

	converted, err := convert(f, value)
	if err != nil {
		return errors.Wrapf(ErrInvalidValue, "%s: %s", column, err.Error())
	}

	if converted == nil {
		fv.Set(reflect.Zero(fv.Type()))

		return nil
	}

	cv := reflect.ValueOf(converted)

	switch fv.Kind() { //nolint:exhaustive
	case reflect.Interface:
		fv.Set(cv)
	case reflect.Pointer:
		p := reflect.New(fv.Type().Elem())
		p.Elem().Set(cv.Convert(fv.Type().Elem()))
		fv.Set(p)
	default:
		fv.Set(cv.Convert(fv.Type()))
	}

	return nil
}

// Assign sets every known column of values on record. Unknown keys are ignored.
func (m *Model) Assign(record any, values map[string]any) error {
	for _, f := range m.fields {
		value, ok := values[f.Name]
		if !ok {
			continue
		}

		if err := m.Set(record, f.Name, value); err != nil {
			return err
		}
	}

	return nil
}

// Coerce converts a filter value to the column type.
func (m *Model) Coerce(column string, value any) (any, error) {
	f, ok := m.Column(column)
	if !ok {
		return nil, errors.Wrap(ErrUnknownColumn, column)
	}

	if value == nil {
		return nil, nil
	}

	converted, err := convert(f, value)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidValue, "%s: %s", column, err.Error())
	}

	return converted, nil
}

// convert returns value as the base type of the field.
func convert(f Field, value any) (any, error) {
	switch f.Type { //nolint:exhaustive
	case TypeInteger, TypeBigInt:
		return cast.ToInt64E(value)
	case TypeFloat, TypeDouble, TypeDecimal:
		return cast.ToFloat64E(value)
	case TypeBoolean:
		return cast.ToBoolE(value)
	case TypeDate, TypeDateTime:
		return cast.ToTimeE(value)
	case TypeJSON, TypeJSONB:
		return normalizeJSON(value)
	default:
		return cast.ToStringE(value)
	}
}

// normalizeJSON round trips value through encoding/json so stored documents only
// contain the generic JSON types.
func normalizeJSON(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	var out any
	if err = json.Unmarshal(raw, &out); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return out, nil
}

// ToMap renders a record as a column map. Hidden columns are only included when
// includeHidden is set.
func (m *Model) ToMap(record any, includeHidden bool) map[string]any {
	out := make(map[string]any, len(m.fields))

	for _, f := range m.fields {
		if f.Hidden && !includeHidden {
			continue
		}

		fv, ok := m.fieldValue(record, f.Name)
		if !ok {
			return nil
		}

		out[f.Name] = plain(fv)
	}

	return out
}

// ToMaps renders a record slice pointer as returned by NewSlice.
func (m *Model) ToMaps(records any, includeHidden bool) []map[string]any {
	v := reflect.ValueOf(records)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	if v.Kind() != reflect.Slice {
		return nil
	}

	out := make([]map[string]any, 0, v.Len())
	for i := range v.Len() {
		out = append(out, m.ToMap(v.Index(i).Addr().Interface(), includeHidden))
	}

	return out
}
