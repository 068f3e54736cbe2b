package crudform

import (
	"context"
	"fmt"

	"github.com/DaudDevs/conect-voucher-market/internal/datastore"
)

// OptionSource loads reference data for select controls.
type OptionSource interface {
	Select(ctx context.Context, collection, search string) ([]datastore.Record, error)
}

// Store is the subset of the datastore a form submits through.
type Store interface {
	OptionSource
	Insert(ctx context.Context, collection string, rec datastore.Record) (datastore.Record, error)
	Update(ctx context.Context, collection, id string, patch datastore.Record) error
}

// Form is a create-or-update form for one collection. With an initial record
// it edits that record using a data-inferred schema; without one it creates a
// new record using the collection's default schema.
type Form struct {
	collection string
	editing    bool
	recordID   string
	schema     Schema
	initial    datastore.Record
	store      Store
}

// RenderedField is a schema field resolved to a concrete control and
// pre-populated with the current value when editing.
type RenderedField struct {
	Field
	Control Control `json:"control"`
	Value   any     `json:"value,omitempty"`
}

// New builds a form for the collection. The collection is checked against the
// allow-list up front so an invalid name fails before any store access.
func New(store Store, collection string, initial datastore.Record) (*Form, error) {
	if !datastore.IsValidCollection(collection) {
		return nil, fmt.Errorf("%w: %s", datastore.ErrInvalidCollection, collection)
	}

	f := &Form{collection: collection, store: store}
	if initial != nil {
		id, _ := initial["id"].(string)
		if id == "" {
			return nil, fmt.Errorf("initial record has no id")
		}
		f.editing = true
		f.recordID = id
		f.initial = initial
		f.schema = InferSchema(initial)
	} else {
		f.schema = DefaultSchema(collection)
	}
	return f, nil
}

func (f *Form) Editing() bool  { return f.editing }
func (f *Form) Schema() Schema { return f.schema }

// Fields resolves every schema field to its control, loading reference
// options where needed, and fills in current values when editing.
func (f *Form) Fields(ctx context.Context) ([]RenderedField, error) {
	fields := make([]RenderedField, 0, len(f.schema))
	for _, field := range f.schema {
		control, err := controlFor(ctx, f.store, f.collection, field)
		if err != nil {
			return nil, err
		}
		rendered := RenderedField{Field: field, Control: control}
		if f.editing {
			rendered.Value = f.initial[field.Name]
		}
		fields = append(fields, rendered)
	}
	return fields, nil
}

// Validate checks the submitted values against the schema and returns the
// normalized record to store. Unknown fields are dropped; absent booleans
// default to false.
func (f *Form) Validate(values datastore.Record) (datastore.Record, FieldErrors) {
	normalized := datastore.Record{}
	fieldErrs := FieldErrors{}

	for _, field := range f.schema {
		value, present := values[field.Name]
		out, msg, ok := validateField(field, value, present)
		if msg != "" {
			fieldErrs[field.Name] = msg
			continue
		}
		if ok {
			normalized[field.Name] = out
		}
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}
	return normalized, nil
}

// Submit validates and writes the record: an id-filtered update when editing,
// an insert otherwise. Validation failures never reach the store. The saved
// record is returned on success.
func (f *Form) Submit(ctx context.Context, values datastore.Record) (datastore.Record, error) {
	normalized, fieldErrs := f.Validate(values)
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	if f.editing {
		if err := f.store.Update(ctx, f.collection, f.recordID, normalized); err != nil {
			return nil, fmt.Errorf("updating %s record: %w", f.collection, err)
		}
		merged := datastore.Record{"id": f.recordID}
		for k, v := range f.initial {
			merged[k] = v
		}
		for k, v := range normalized {
			merged[k] = v
		}
		return merged, nil
	}

	created, err := f.store.Insert(ctx, f.collection, normalized)
	if err != nil {
		return nil, fmt.Errorf("creating %s record: %w", f.collection, err)
	}
	return created, nil
}
