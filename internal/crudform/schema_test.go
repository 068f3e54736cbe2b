package crudform

import (
	"context"
	"testing"

	"github.com/DaudDevs/conect-voucher-market/internal/datastore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferSchemaSkipsSystemFieldsAndMarksNothingRequired(t *testing.T) {
	rec := datastore.Record{
		"id":         "abc",
		"created_at": "2026-01-01T00:00:00Z",
		"updated_at": "2026-01-01T00:00:00Z",
		"name":       "Voucher",
		"price":      float64(100000),
		"is_popular": true,
		"metadata":   map[string]any{"k": "v"},
	}

	schema := InferSchema(rec)

	assert.Equal(t, Schema{
		{Name: "is_popular", Type: TypeBoolean},
		{Name: "metadata", Type: TypeOther},
		{Name: "name", Type: TypeString},
		{Name: "price", Type: TypeNumber},
	}, schema)
	for _, f := range schema {
		assert.False(t, f.Required, f.Name)
	}
}

func TestDefaultSchemaPerCollection(t *testing.T) {
	products := DefaultSchema("products")
	require.Len(t, products, 8)
	assert.Equal(t, Field{Name: "name", Type: TypeString, Required: true}, products[0])
	assert.Equal(t, Field{Name: "category_id", Type: TypeString, Required: true}, products[3])

	categories := DefaultSchema("categories")
	require.Len(t, categories, 3)
	assert.Equal(t, "slug", categories[1].Name)
	assert.True(t, categories[1].Required)

	profiles := DefaultSchema("profiles")
	require.Len(t, profiles, 3)
	assert.Equal(t, Field{Name: "role", Type: TypeString, Required: true}, profiles[2])

	assert.Empty(t, DefaultSchema("orders"))
	assert.Empty(t, DefaultSchema("unknown"))
}

type staticSource struct {
	records []datastore.Record
	err     error
	calls   int
}

func (s *staticSource) Select(context.Context, string, string) ([]datastore.Record, error) {
	s.calls++
	return s.records, s.err
}

func TestControlForOverrides(t *testing.T) {
	ctx := context.Background()
	src := &staticSource{records: []datastore.Record{
		{"id": "cat-1", "name": "Home"},
		{"id": "cat-2", "name": "Office"},
	}}

	categorySelect, err := controlFor(ctx, src, "products", Field{Name: "category_id", Type: TypeString})
	require.NoError(t, err)
	assert.Equal(t, ControlSelect, categorySelect.Kind)
	assert.Equal(t, []Option{
		{Value: "cat-1", Label: "Home"},
		{Value: "cat-2", Label: "Office"},
	}, categorySelect.Options)

	durationSelect, err := controlFor(ctx, src, "products", Field{Name: "duration", Type: TypeString})
	require.NoError(t, err)
	assert.Equal(t, ControlSelect, durationSelect.Kind)
	assert.Len(t, durationSelect.Options, 5)
	assert.Equal(t, "1 Day", durationSelect.Options[0].Value)
	assert.Equal(t, "30 Days", durationSelect.Options[4].Value)

	roleSelect, err := controlFor(ctx, src, "profiles", Field{Name: "role", Type: TypeString})
	require.NoError(t, err)
	assert.Equal(t, []Option{
		{Value: "customer", Label: "customer"},
		{Value: "admin", Label: "admin"},
	}, roleSelect.Options)
}

func TestControlForGenericMapping(t *testing.T) {
	ctx := context.Background()
	src := &staticSource{}

	tests := []struct {
		name       string
		collection string
		field      Field
		want       ControlKind
	}{
		{"description textarea on any collection", "categories", Field{Name: "description", Type: TypeString}, ControlTextarea},
		{"boolean toggle", "products", Field{Name: "is_popular", Type: TypeBoolean}, ControlToggle},
		{"number input", "products", Field{Name: "discount", Type: TypeNumber}, ControlNumber},
		{"fallback text", "products", Field{Name: "image", Type: TypeString}, ControlText},
		{"other type falls back to text", "orders", Field{Name: "payload", Type: TypeOther}, ControlText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			control, err := controlFor(ctx, src, tt.collection, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, control.Kind)
		})
	}
	assert.Zero(t, src.calls, "generic controls must not hit the store")
}

func TestControlForRoleOnlyOnProfiles(t *testing.T) {
	// A role column on another collection gets the generic text input; the
	// override is keyed on the (collection, field) pair, not the name alone.
	control, err := controlFor(context.Background(), &staticSource{}, "orders", Field{Name: "role", Type: TypeString})
	require.NoError(t, err)
	assert.Equal(t, ControlText, control.Kind)
}
