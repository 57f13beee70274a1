// Package models loads YAML model definitions and compiles them into gorm-mapped struct types.
package models

import (
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/restcore/restcore/internal/files"
)

// FieldType is the column type of a model field.
type FieldType string

// Supported field types.
const (
	TypeString   FieldType = "string"
	TypeText     FieldType = "text"
	TypeInteger  FieldType = "integer"
	TypeBigInt   FieldType = "bigint"
	TypeFloat    FieldType = "float"
	TypeDouble   FieldType = "double"
	TypeDecimal  FieldType = "decimal"
	TypeBoolean  FieldType = "boolean"
	TypeDate     FieldType = "date"
	TypeDateTime FieldType = "datetime"
	TypeUUID     FieldType = "uuid"
	TypeJSON     FieldType = "json"
	TypeJSONB    FieldType = "jsonb"
	TypePassword FieldType = "password"
)

// Generated default values.
const (
	DefaultUUIDv4 = "uuidv4"
	DefaultNow    = "now"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Field describes one column.
type Field struct {
	Name          string    `yaml:"-"             validate:"required,identifier"`
	Type          FieldType `yaml:"type"          validate:"required,oneof=string text integer bigint float double decimal boolean date datetime uuid json jsonb password"` //nolint:lll
	Size          int       `yaml:"size"          validate:"gte=0"`
	Precision     int       `yaml:"precision"     validate:"gte=0"`
	Scale         int       `yaml:"scale"         validate:"gte=0"`
	PrimaryKey    bool      `yaml:"primaryKey"`
	AutoIncrement bool      `yaml:"autoIncrement"`
	Unique        bool      `yaml:"unique"`
	Index         bool      `yaml:"index"`
	AllowNull     *bool     `yaml:"allowNull"`
	Default       string    `yaml:"default"`
	Hidden        bool      `yaml:"hidden"`
}

// Nullable reports whether the column accepts NULL. Columns are nullable unless
// declared otherwise or part of the primary key.
func (f Field) Nullable() bool {
	if f.PrimaryKey || f.AutoIncrement {
		return false
	}

	return f.AllowNull == nil || *f.AllowNull
}

// IsJSON reports whether the column stores a JSON document.
func (f Field) IsJSON() bool {
	return f.Type == TypeJSON || f.Type == TypeJSONB
}

// IsText reports whether the column holds character data.
func (f Field) IsText() bool {
	switch f.Type { //nolint:exhaustive
	case TypeString, TypeText, TypeUUID:
		return true
	default:
		return false
	}
}

// Fields keeps the declaration order of a YAML fields mapping.
type Fields []Field

// UnmarshalYAML decodes a mapping of column name to field. A scalar value is
// shorthand for the type: `email: string`.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Wrapf(ErrInvalidDefinition, "fields must be a mapping (line %d)", node.Line)
	}

	out := make(Fields, 0, len(node.Content)/2) //nolint:mnd

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var field Field

		if value.Kind == yaml.ScalarNode {
			field.Type = FieldType(value.Value)
		} else if err := value.Decode(&field); err != nil {
			return errors.Wrapf(err, "field %s", key.Value)
		}

		field.Name = key.Value
		out = append(out, field)
	}

	*f = out

	return nil
}

// Definition is the content of one model file.
type Definition struct {
	Name       string `yaml:"name"       validate:"required,identifier"`
	Table      string `yaml:"table"`
	Schema     string `yaml:"schema"`
	Key        string `yaml:"key"`
	Timestamps *bool  `yaml:"timestamps"`
	Fields     Fields `yaml:"fields"     validate:"required,min=1,dive"`
}

// WithTimestamps reports whether created_at and updated_at are managed.
func (d *Definition) WithTimestamps() bool {
	return d.Timestamps == nil || *d.Timestamps
}

// Field returns the field declared for column name.
func (d *Definition) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return identifier.MatchString(fl.Field().String())
	})

	return v
}

// Parse decodes and validates a definition. name is used when the document does not set one.
func Parse(raw []byte, name string) (*Definition, error) {
	def := &Definition{}
	if err := yaml.Unmarshal(raw, def); err != nil {
		return nil, errors.Wrap(ErrInvalidDefinition, err.Error())
	}

	if def.Name == "" {
		def.Name = name
	}

	if err := validate.Struct(def); err != nil {
		return nil, errors.Wrapf(ErrInvalidDefinition, "%s: %s", def.Name, err.Error())
	}

	seen := make(map[string]struct{}, len(def.Fields))
	autoIncrement := 0

	for _, f := range def.Fields {
		if _, ok := seen[f.Name]; ok {
			return nil, errors.Wrapf(ErrInvalidDefinition, "%s: duplicate field %s", def.Name, f.Name)
		}

		seen[f.Name] = struct{}{}

		if f.AutoIncrement {
			autoIncrement++

			if f.Type != TypeInteger && f.Type != TypeBigInt {
				return nil, errors.Wrapf(ErrInvalidDefinition, "%s: autoIncrement field %s must be an integer", def.Name, f.Name)
			}
		}
	}

	if autoIncrement > 1 {
		return nil, errors.Wrapf(ErrInvalidDefinition, "%s: only one autoIncrement field is allowed", def.Name)
	}

	return def, nil
}

// Load reads the model file. The entity name defaults to the file name: models/user.yaml -> user.
func Load(file string) (*Definition, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model %s", file)
	}

	def, err := Parse(raw, files.EntityName(file))
	if err != nil {
		return nil, errors.Wrap(err, file)
	}

	return def, nil
}
