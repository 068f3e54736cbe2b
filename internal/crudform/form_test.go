package crudform

import (
	"context"
	"errors"
	"testing"

	"github.com/DaudDevs/conect-voucher-market/internal/datastore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	selectRecords []datastore.Record
	insertErr     error
	updateErr     error

	inserted     datastore.Record
	insertedInto string
	updated      datastore.Record
	updatedID    string
	calls        int
}

func (m *mockStore) Select(context.Context, string, string) ([]datastore.Record, error) {
	return m.selectRecords, nil
}

func (m *mockStore) Insert(_ context.Context, collection string, rec datastore.Record) (datastore.Record, error) {
	m.calls++
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.insertedInto = collection
	m.inserted = rec
	created := datastore.Record{"id": "new-id"}
	for k, v := range rec {
		created[k] = v
	}
	return created, nil
}

func (m *mockStore) Update(_ context.Context, _ string, id string, patch datastore.Record) error {
	m.calls++
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedID = id
	m.updated = patch
	return nil
}

func TestNewRejectsInvalidCollection(t *testing.T) {
	_, err := New(&mockStore{}, "drop_table", nil)
	assert.ErrorIs(t, err, datastore.ErrInvalidCollection)
}

func TestCreateProductMissingCategoryBlocksSubmission(t *testing.T) {
	store := &mockStore{}
	form, err := New(store, "products", nil)
	require.NoError(t, err)

	_, err = form.Submit(context.Background(), datastore.Record{
		"name":     "Voucher",
		"price":    float64(100000),
		"duration": "1 Day",
		// category_id intentionally absent
	})

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "category_id")
	assert.Zero(t, store.calls, "validation failure must not reach the store")
}

func TestCreateProductEmptyCategoryBlocksSubmission(t *testing.T) {
	store := &mockStore{}
	form, err := New(store, "products", nil)
	require.NoError(t, err)

	_, err = form.Submit(context.Background(), datastore.Record{
		"name":        "Voucher",
		"price":       float64(100000),
		"duration":    "1 Day",
		"category_id": "",
	})

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "category_id")
	assert.Zero(t, store.calls)
}

func TestCreateProductNegativePriceBlocked(t *testing.T) {
	store := &mockStore{}
	form, err := New(store, "products", nil)
	require.NoError(t, err)

	_, err = form.Submit(context.Background(), datastore.Record{
		"name":        "Voucher",
		"price":       float64(-1),
		"duration":    "1 Day",
		"category_id": "cat-1",
	})

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "price")
}

func TestCreateInsertsNormalizedValues(t *testing.T) {
	store := &mockStore{}
	form, err := New(store, "products", nil)
	require.NoError(t, err)

	created, err := form.Submit(context.Background(), datastore.Record{
		"name":        "Voucher",
		"price":       "100000", // coerced from string
		"duration":    "1 Day",
		"category_id": "cat-1",
		"bogus":       "dropped",
	})
	require.NoError(t, err)

	assert.Equal(t, "products", store.insertedInto)
	assert.Equal(t, float64(100000), store.inserted["price"])
	assert.Equal(t, false, store.inserted["is_popular"], "absent boolean defaults to false")
	assert.NotContains(t, store.inserted, "bogus")
	assert.Equal(t, "new-id", created["id"])
}

func TestEditUsesInferredSchemaAndUpdatesById(t *testing.T) {
	store := &mockStore{}
	initial := datastore.Record{
		"id":         "prod-9",
		"created_at": "2026-01-01T00:00:00Z",
		"name":       "Old name",
		"price":      float64(50000),
		"is_popular": false,
	}
	form, err := New(store, "products", initial)
	require.NoError(t, err)
	assert.True(t, form.Editing())

	// Inferred schema: alphabetical, nothing required.
	assert.Equal(t, Schema{
		{Name: "is_popular", Type: TypeBoolean},
		{Name: "name", Type: TypeString},
		{Name: "price", Type: TypeNumber},
	}, form.Schema())

	saved, err := form.Submit(context.Background(), datastore.Record{
		"name":       "New name",
		"price":      float64(60000),
		"is_popular": true,
	})
	require.NoError(t, err)

	assert.Equal(t, "prod-9", store.updatedID)
	assert.Equal(t, "New name", store.updated["name"])
	assert.Equal(t, "prod-9", saved["id"])
	assert.Equal(t, float64(60000), saved["price"])
}

func TestSubmitSurfacesStoreErrorWithoutRetry(t *testing.T) {
	store := &mockStore{insertErr: errors.New("connection reset")}
	form, err := New(store, "categories", nil)
	require.NoError(t, err)

	_, err = form.Submit(context.Background(), datastore.Record{
		"name": "Home",
		"slug": "home",
	})
	require.Error(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestFieldsPopulatesValuesWhenEditing(t *testing.T) {
	store := &mockStore{selectRecords: []datastore.Record{{"id": "cat-1", "name": "Home"}}}
	initial := datastore.Record{
		"id":          "prod-1",
		"name":        "Voucher",
		"category_id": "cat-1",
	}
	form, err := New(store, "products", initial)
	require.NoError(t, err)

	fields, err := form.Fields(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "category_id", fields[0].Name)
	assert.Equal(t, ControlSelect, fields[0].Control.Kind)
	assert.Equal(t, "cat-1", fields[0].Value)
	assert.Equal(t, "name", fields[1].Name)
	assert.Equal(t, "Voucher", fields[1].Value)
}
