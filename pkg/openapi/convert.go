package openapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/tidwall/sjson"

	"github.com/goliatone/go-surveysync/pkg/definition"
)

var (
	// ErrOperationNotFound reports an operation id missing from the document.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody reports an operation without a usable request schema.
	ErrNoRequestBody = errors.New("openapi: operation has no request body schema")
)

var requestMediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// Options configures document loading.
type Options struct {
	AllowExternalRefs bool
	Validate          bool
}

// Option mutates Options.
type Option func(*Options)

// WithExternalRefs lets the loader resolve references outside the document.
func WithExternalRefs() Option {
	return func(o *Options) {
		o.AllowExternalRefs = true
	}
}

// WithValidation validates the document before conversion.
func WithValidation() Option {
	return func(o *Options) {
		o.Validate = true
	}
}

// Operation summarises an operation found in a document.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string
}

// Converter turns OpenAPI operations into survey definitions.
type Converter struct {
	doc *openapi3.T
}

// Load parses an OpenAPI document from JSON or YAML.
func Load(ctx context.Context, raw []byte, opts ...Option) (*Converter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	cfg := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: cfg.AllowExternalRefs,
	}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if cfg.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return &Converter{doc: doc}, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Converter, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return Load(ctx, raw, opts...)
}

// Operations lists the operations of the document sorted by id. Operations
// without an operationId are keyed "method:path".
func (c *Converter) Operations() []Operation {
	var out []Operation
	c.eachOperation(func(method, path string, op *openapi3.Operation) bool {
		out = append(out, Operation{
			ID:      operationID(method, path, op),
			Method:  method,
			Path:    path,
			Summary: op.Summary,
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Definition builds a survey definition from the request body of the
// operation named id.
func (c *Converter) Definition(id string) (definition.Definition, error) {
	var found *openapi3.Operation
	c.eachOperation(func(method, path string, op *openapi3.Operation) bool {
		if operationID(method, path, op) == id {
			found = op
			return false
		}
		return true
	})
	if found == nil {
		return definition.Definition{}, fmt.Errorf("%w: %q", ErrOperationNotFound, id)
	}

	schema := requestSchema(found.RequestBody)
	if schema == nil || len(schema.Properties) == 0 {
		return definition.Definition{}, fmt.Errorf("%w: %q", ErrNoRequestBody, id)
	}

	title := strings.TrimSpace(found.Summary)
	if title == "" {
		title = id
	}
	raw, err := sjson.SetBytes([]byte(`{}`), "title", title)
	if err != nil {
		return definition.Definition{}, err
	}
	raw, err = sjson.SetBytes(raw, "questions", elements("", schema))
	if err != nil {
		return definition.Definition{}, fmt.Errorf("openapi: build definition: %w", err)
	}
	return definition.FromJSON(raw)
}

func (c *Converter) eachOperation(fn func(method, path string, op *openapi3.Operation) bool) {
	if c == nil || c.doc == nil || c.doc.Paths == nil {
		return
	}
	paths := c.doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for _, method := range []string{"GET", "PUT", "POST", "DELETE", "PATCH"} {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			if !fn(method, path, op) {
				return
			}
		}
	}
}

func operationID(method, path string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToLower(method) + ":" + path
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// elements maps the properties of an object schema to survey elements in
// name order. prefix qualifies the names of nested properties.
func elements(prefix string, schema *openapi3.Schema) []map[string]any {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil || ref.Value.ReadOnly {
			continue
		}
		qualified := name
		if prefix != "" {
			qualified = prefix + "." + name
		}
		out = append(out, element(qualified, name, ref.Value, required[name]))
	}
	return out
}

func element(name, key string, schema *openapi3.Schema, required bool) map[string]any {
	title := strings.TrimSpace(schema.Title)
	if title == "" {
		title = key
	}
	el := map[string]any{"name": name, "title": title}
	if schema.Description != "" {
		el["description"] = schema.Description
	}
	if required {
		el["isRequired"] = true
	}
	if schema.Default != nil {
		el["defaultValue"] = schema.Default
	}

	switch schemaType(schema) {
	case openapi3.TypeObject:
		el["type"] = "panel"
		el["elements"] = elements(name, schema)
		delete(el, "isRequired")
	case openapi3.TypeBoolean:
		el["type"] = "boolean"
	case openapi3.TypeArray:
		if items := schema.Items; items != nil && items.Value != nil && len(items.Value.Enum) > 0 {
			el["type"] = "checkbox"
			el["choices"] = choices(items.Value.Enum)
		} else {
			el["type"] = "comment"
		}
	case openapi3.TypeInteger, openapi3.TypeNumber:
		if len(schema.Enum) > 0 {
			el["type"] = "dropdown"
			el["choices"] = choices(schema.Enum)
			break
		}
		el["type"] = "text"
		el["inputType"] = "number"
	default:
		switch {
		case len(schema.Enum) > 0:
			el["type"] = "dropdown"
			el["choices"] = choices(schema.Enum)
		case schema.MaxLength != nil && *schema.MaxLength > 255:
			el["type"] = "comment"
		default:
			el["type"] = "text"
			if inputType := formatInputType(schema.Format); inputType != "" {
				el["inputType"] = inputType
			}
		}
	}
	return el
}

func choices(values []any) []map[string]any {
	out := make([]map[string]any, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		out = append(out, map[string]any{"value": value, "text": fmt.Sprint(value)})
	}
	return out
}

func formatInputType(format string) string {
	switch strings.ToLower(format) {
	case "email":
		return "email"
	case "password":
		return "password"
	case "date":
		return "date"
	case "date-time":
		return "datetime-local"
	case "uri", "url":
		return "url"
	default:
		return ""
	}
}

func schemaType(schema *openapi3.Schema) string {
	if schema.Type == nil {
		if len(schema.Properties) > 0 {
			return openapi3.TypeObject
		}
		return ""
	}
	values := schema.Type.Slice()
	for _, value := range values {
		if value != openapi3.TypeNull {
			return value
		}
	}
	return ""
}
