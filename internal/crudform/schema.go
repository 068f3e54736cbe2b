package crudform

import (
	"sort"

	"github.com/DaudDevs/conect-voucher-market/internal/datastore"
)

type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeOther   FieldType = "other"
)

// Field describes one editable column of a collection.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Schema is the ordered field list a form renders.
type Schema []Field

// System columns are never editable and are excluded from every schema.
var systemFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// InferSchema derives a schema from an existing record: the type of each
// field follows the dynamic type of its current value and nothing is marked
// required. Field order is alphabetical so repeated renders are stable.
func InferSchema(rec datastore.Record) Schema {
	names := make([]string, 0, len(rec))
	for name := range rec {
		if systemFields[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	schema := make(Schema, 0, len(names))
	for _, name := range names {
		schema = append(schema, Field{Name: name, Type: inferType(rec[name])})
	}
	return schema
}

func inferType(v any) FieldType {
	switch v.(type) {
	case string:
		return TypeString
	case float64, float32, int, int32, int64:
		return TypeNumber
	case bool:
		return TypeBoolean
	default:
		return TypeOther
	}
}

// DefaultSchema is the hand-maintained create-mode schema per collection.
// Edit-mode schemas are inferred from data instead, so the two can drift: a
// column missing from sample data never shows up here unless someone adds it.
// That asymmetry is inherited behavior, kept on purpose.
func DefaultSchema(collection string) Schema {
	switch collection {
	case "products":
		return Schema{
			{Name: "name", Type: TypeString, Required: true},
			{Name: "price", Type: TypeNumber, Required: true},
			{Name: "description", Type: TypeString},
			{Name: "category_id", Type: TypeString, Required: true},
			{Name: "duration", Type: TypeString, Required: true},
			{Name: "is_popular", Type: TypeBoolean},
			{Name: "discount", Type: TypeNumber},
			{Name: "image", Type: TypeString},
		}
	case "categories":
		return Schema{
			{Name: "name", Type: TypeString, Required: true},
			{Name: "slug", Type: TypeString, Required: true},
			{Name: "image", Type: TypeString},
		}
	case "profiles":
		return Schema{
			{Name: "first_name", Type: TypeString},
			{Name: "last_name", Type: TypeString},
			{Name: "role", Type: TypeString, Required: true},
		}
	default:
		return Schema{}
	}
}
