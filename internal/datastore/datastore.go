package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalidCollection = errors.New("invalid collection")
	ErrNotFound          = errors.New("record not found")
)

// Record is one row of a collection with column names as keys.
type Record map[string]any

// collectionMeta describes how a collection is searched and updated.
// searchColumns are the columns matched with a case-insensitive substring
// filter, OR-ed together. hasUpdatedAt marks collections whose table carries
// an updated_at column; order_items rows are immutable line snapshots and
// have none.
type collectionMeta struct {
	searchColumns []string
	hasUpdatedAt  bool
}

// collections is the allow-list. Every operation validates against it before
// touching the database, so arbitrary table access is impossible.
var collections = map[string]collectionMeta{
	"categories":  {searchColumns: []string{"name"}, hasUpdatedAt: true},
	"products":    {searchColumns: []string{"name"}, hasUpdatedAt: true},
	"profiles":    {searchColumns: []string{"first_name", "last_name"}, hasUpdatedAt: true},
	"orders":      {hasUpdatedAt: true},
	"order_items": {},
}

// identifierPattern guards column names taken from client-supplied records
// before they are interpolated into SQL. Values always bind as placeholders.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidCollection reports whether name is on the allow-list.
func IsValidCollection(name string) bool {
	_, ok := collections[name]
	return ok
}

// Collections returns the allow-listed collection names, sorted.
func Collections() []string {
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store gives generic create/read/update/delete access to the allow-listed
// collections.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

// Select returns every record of the collection. A non-empty search term
// filters by case-insensitive substring match on the collection's searchable
// columns; collections without searchable columns ignore the term.
func (s *Store) Select(ctx context.Context, collection, search string) ([]Record, error) {
	meta, ok := collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCollection, collection)
	}

	query := fmt.Sprintf(`SELECT * FROM %s`, collection)
	var args []any
	if search != "" && len(meta.searchColumns) > 0 {
		var conds []string
		for _, col := range meta.searchColumns {
			conds = append(conds, fmt.Sprintf("%s ILIKE $1", col))
		}
		query += " WHERE " + strings.Join(conds, " OR ")
		args = append(args, "%"+search+"%")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", collection, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", collection, err)
	}
	return records, nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, collection, id string) (Record, error) {
	if !IsValidCollection(collection) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCollection, collection)
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE id = $1`, collection)
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating %s rows: %w", collection, err)
		}
		return nil, ErrNotFound
	}
	rec, err := scanRecord(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning %s row: %w", collection, err)
	}
	return rec, nil
}

// Insert creates a record and returns the stored row, including generated
// columns such as id and timestamps.
func (s *Store) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	if !IsValidCollection(collection) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCollection, collection)
	}

	cols, args, err := orderedColumns(rec)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no columns to insert")
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING *`,
		collection, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", collection, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("inserting into %s: %w", collection, err)
		}
		return nil, fmt.Errorf("insert into %s returned no row", collection)
	}
	created, err := scanRecord(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning inserted %s row: %w", collection, err)
	}
	return created, nil
}

// Update merges the patch into the record with the given id.
func (s *Store) Update(ctx context.Context, collection, id string, patch Record) error {
	if !IsValidCollection(collection) {
		return fmt.Errorf("%w: %s", ErrInvalidCollection, collection)
	}

	cols, args, err := orderedColumns(patch)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("no columns to update")
	}

	args = append(args, id)
	query := buildUpdateQuery(collection, cols)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", collection, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s: %w", collection, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the record with the given id.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if !IsValidCollection(collection) {
		return fmt.Errorf("%w: %s", ErrInvalidCollection, collection)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, collection)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", collection, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", collection, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildUpdateQuery assembles the UPDATE statement for an allow-listed
// collection. The updated_at touch is only added for tables that have the
// column; the id always binds as the last placeholder.
func buildUpdateQuery(collection string, cols []string) string {
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	set := strings.Join(assignments, ", ")
	if collections[collection].hasUpdatedAt {
		set += ", updated_at = NOW()"
	}
	return fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, collection, set, len(cols)+1)
}

// orderedColumns turns a record into a deterministic column/argument list,
// rejecting any key that is not a plain lowercase identifier.
func orderedColumns(rec Record) ([]string, []any, error) {
	cols := make([]string, 0, len(rec))
	for col := range rec {
		if !identifierPattern.MatchString(col) {
			return nil, nil, fmt.Errorf("invalid column name: %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, col := range cols {
		args[i] = rec[col]
	}
	return cols, args, nil
}

// scanRecord reads the current row into a Record, normalizing byte slices to
// strings so records marshal cleanly to JSON.
func scanRecord(rows *sql.Rows) (Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, err
	}

	rec := make(Record, len(columns))
	for i, col := range columns {
		switch v := values[i].(type) {
		case []byte:
			rec[col] = string(v)
		default:
			rec[col] = v
		}
	}
	return rec, nil
}
