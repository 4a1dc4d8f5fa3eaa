package schema

import (
	"encoding/json"
	"fmt"
	"path"
	"reflect"
	"strconv"
	"strings"
)

// JSONSchema represents a JSON Schema document
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	AdditionalProperties any                    `json:"additionalProperties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AnyOf                []*JSONSchema          `json:"anyOf,omitempty"`
	Enum                 []interface{}          `json:"enum,omitempty"`
	Default              interface{}            `json:"default,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty"`
	MaxLength            *int                   `json:"maxLength,omitempty"`
	MinItems             *int                   `json:"minItems,omitempty"`
	MaxItems             *int                   `json:"maxItems,omitempty"`
	Examples             []interface{}          `json:"examples,omitempty"`
}

const schemaRef = "https://json-schema.org/draft/2020-12/schema"

const defaultBaseID = "https://schemas.modelcfg.dev/"

// Shaper is implemented by types whose document shape differs from their
// Go shape, such as values accepting either a scalar or a mapping.
type Shaper interface {
	JSONSchema(g *Generator) (*JSONSchema, error)
}

var shaperType = reflect.TypeOf((*Shaper)(nil)).Elem()

// Generator generates JSON schemas from Go structs. Property names come
// from the struct tag named by TagKey, json by default.
type Generator struct {
	TagKey string
	BaseID string
}

type Option func(*Generator)

// WithTagKey selects the struct tag (json or yaml) used for property names.
func WithTagKey(key string) Option {
	return func(g *Generator) {
		g.TagKey = key
	}
}

// NewGenerator creates a new schema generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{TagKey: "json", BaseID: defaultBaseID}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateSchema generates a JSON schema from a Go type
func (g *Generator) GenerateSchema(t reflect.Type) (*JSONSchema, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s, err := g.Of(t)
	if err != nil {
		return nil, err
	}
	s.Schema = schemaRef
	g.parseSchemaAnnotations(t, s)
	return s, nil
}

// Of returns the schema of t without root metadata.
func (g *Generator) Of(t reflect.Type) (*JSONSchema, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Implements(shaperType) {
		return reflect.Zero(t).Interface().(Shaper).JSONSchema(g)
	}

	schema := &JSONSchema{}

	switch t.Kind() {
	case reflect.Struct:
		return g.generateStructSchema(t)
	case reflect.Slice, reflect.Array:
		return g.generateSliceSchema(t)
	case reflect.Map:
		return g.generateMapSchema(t)
	case reflect.Interface:
		// any value
	case reflect.String:
		schema.Type = "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema.Type = "integer"
	case reflect.Float32, reflect.Float64:
		schema.Type = "number"
	case reflect.Bool:
		schema.Type = "boolean"
	default:
		return nil, fmt.Errorf("unsupported type: %s", t.Kind())
	}

	return schema, nil
}

func (g *Generator) generateStructSchema(t reflect.Type) (*JSONSchema, error) {
	schema := &JSONSchema{
		Type:       "object",
		Properties: make(map[string]*JSONSchema),
	}

	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		name, inline, skip := g.fieldName(field)
		if skip {
			continue
		}
		if inline {
			// inline maps collect keys not declared on the struct
			if field.Type.Kind() == reflect.Map {
				schema.AdditionalProperties = true
			}
			continue
		}

		fieldSchema, err := g.generateFieldSchema(field)
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for field %s: %w", field.Name, err)
		}

		schema.Properties[name] = fieldSchema

		if g.isFieldRequired(field) {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		schema.Required = required
	}

	return schema, nil
}

func (g *Generator) generateSliceSchema(t reflect.Type) (*JSONSchema, error) {
	itemSchema, err := g.Of(t.Elem())
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for array items: %w", err)
	}
	return &JSONSchema{Type: "array", Items: itemSchema}, nil
}

func (g *Generator) generateMapSchema(t reflect.Type) (*JSONSchema, error) {
	if t.Key().Kind() != reflect.String {
		return nil, fmt.Errorf("unsupported map key type: %s", t.Key().Kind())
	}
	schema := &JSONSchema{Type: "object", AdditionalProperties: true}
	if t.Elem().Kind() != reflect.Interface {
		elem, err := g.Of(t.Elem())
		if err != nil {
			return nil, err
		}
		schema.AdditionalProperties = elem
	}
	return schema, nil
}

func (g *Generator) generateFieldSchema(field reflect.StructField) (*JSONSchema, error) {
	fieldSchema, err := g.Of(field.Type)
	if err != nil {
		return nil, err
	}

	if desc := field.Tag.Get("description"); desc != "" {
		fieldSchema.Description = desc
	}

	if schemaTag := field.Tag.Get("schema"); schemaTag != "" {
		g.parseSchemaTag(schemaTag, fieldSchema)
	}

	return fieldSchema, nil
}

func (g *Generator) parseSchemaTag(tag string, schema *JSONSchema) {
	intOpt := func(part, prefix string, dst **int) {
		if val, err := strconv.Atoi(strings.TrimPrefix(part, prefix)); err == nil {
			*dst = &val
		}
	}
	floatOpt := func(part, prefix string, dst **float64) {
		if val, err := strconv.ParseFloat(strings.TrimPrefix(part, prefix), 64); err == nil {
			*dst = &val
		}
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)

		switch {
		case part == "required":
			// handled at the struct level
		case strings.HasPrefix(part, "enum="):
			enums := strings.Split(strings.TrimPrefix(part, "enum="), "|")
			schema.Enum = make([]interface{}, len(enums))
			for i, e := range enums {
				schema.Enum[i] = e
			}
		case strings.HasPrefix(part, "default="):
			schema.Default = strings.TrimPrefix(part, "default=")
		case strings.HasPrefix(part, "pattern="):
			schema.Pattern = strings.TrimPrefix(part, "pattern=")
		case strings.HasPrefix(part, "minimum="):
			floatOpt(part, "minimum=", &schema.Minimum)
		case strings.HasPrefix(part, "maximum="):
			floatOpt(part, "maximum=", &schema.Maximum)
		case strings.HasPrefix(part, "minLength="):
			intOpt(part, "minLength=", &schema.MinLength)
		case strings.HasPrefix(part, "maxLength="):
			intOpt(part, "maxLength=", &schema.MaxLength)
		case strings.HasPrefix(part, "minItems="):
			intOpt(part, "minItems=", &schema.MinItems)
		case strings.HasPrefix(part, "maxItems="):
			intOpt(part, "maxItems=", &schema.MaxItems)
		}
	}
}

// fieldName resolves the property name from the configured tag.
func (g *Generator) fieldName(field reflect.StructField) (name string, inline, skip bool) {
	tag, ok := field.Tag.Lookup(g.TagKey)
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "inline" {
			return "", true, false
		}
	}
	if !ok || parts[0] == "" {
		return strings.ToLower(field.Name[:1]) + field.Name[1:], false, false
	}
	return parts[0], false, false
}

func (g *Generator) isFieldRequired(field reflect.StructField) bool {
	for _, part := range strings.Split(field.Tag.Get("schema"), ",") {
		if strings.TrimSpace(part) == "required" {
			return true
		}
	}
	return false
}

func (g *Generator) parseSchemaAnnotations(t reflect.Type, schema *JSONSchema) {
	pkg := path.Base(t.PkgPath())
	schema.Title = pkg + "." + t.Name()
	schema.ID = fmt.Sprintf("%s%s-%s", g.BaseID, pkg, strings.ToLower(t.Name()))
}

// GenerateJSONSchema generates a JSON schema as a JSON string
func (g *Generator) GenerateJSONSchema(v interface{}) (string, error) {
	t := reflect.TypeOf(v)
	schema, err := g.GenerateSchema(t)
	if err != nil {
		return "", err
	}

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}

	return string(jsonBytes), nil
}
