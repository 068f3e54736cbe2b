package datastore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidCollection(t *testing.T) {
	for _, name := range []string{"categories", "products", "profiles", "orders", "order_items"} {
		assert.True(t, IsValidCollection(name), name)
	}
	for _, name := range []string{"drop_table", "users", "", "products; --"} {
		assert.False(t, IsValidCollection(name), name)
	}
}

func TestOperationsRejectInvalidCollectionBeforeAnyStoreCall(t *testing.T) {
	// A nil *sql.DB would panic on use; passing one proves the allow-list
	// check happens before the store is touched.
	s := &Store{db: (*sql.DB)(nil)}
	ctx := context.Background()

	_, err := s.Select(ctx, "drop_table", "")
	assert.ErrorIs(t, err, ErrInvalidCollection)

	_, err = s.Get(ctx, "drop_table", "some-id")
	assert.ErrorIs(t, err, ErrInvalidCollection)

	_, err = s.Insert(ctx, "drop_table", Record{"name": "x"})
	assert.ErrorIs(t, err, ErrInvalidCollection)

	err = s.Update(ctx, "drop_table", "some-id", Record{"name": "x"})
	assert.ErrorIs(t, err, ErrInvalidCollection)

	err = s.Delete(ctx, "drop_table", "some-id")
	assert.ErrorIs(t, err, ErrInvalidCollection)
}

func TestOrderedColumnsRejectsHostileNames(t *testing.T) {
	_, _, err := orderedColumns(Record{"name; DROP TABLE products": "x"})
	assert.Error(t, err)

	_, _, err = orderedColumns(Record{"Name": "x"})
	assert.Error(t, err, "uppercase identifiers are not allowed")
}

func TestOrderedColumnsIsDeterministic(t *testing.T) {
	cols, args, err := orderedColumns(Record{"price": 1000, "name": "a", "discount": 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"discount", "name", "price"}, cols)
	assert.Equal(t, []any{5, "a", 1000}, args)
}

func TestBuildUpdateQueryTouchesTimestampOnlyWhereColumnExists(t *testing.T) {
	assert.Equal(t,
		`UPDATE products SET name = $1, price = $2, updated_at = NOW() WHERE id = $3`,
		buildUpdateQuery("products", []string{"name", "price"}))

	// order_items has no updated_at column, so the touch must be skipped or
	// every update against it fails.
	assert.Equal(t,
		`UPDATE order_items SET quantity = $1 WHERE id = $2`,
		buildUpdateQuery("order_items", []string{"quantity"}))
}

func TestCollectionsSorted(t *testing.T) {
	assert.Equal(t, []string{"categories", "order_items", "orders", "products", "profiles"}, Collections())
}
