package crudform

import (
	"context"
	"fmt"
)

type ControlKind string

const (
	ControlText     ControlKind = "text"
	ControlTextarea ControlKind = "textarea"
	ControlNumber   ControlKind = "number"
	ControlToggle   ControlKind = "toggle"
	ControlSelect   ControlKind = "select"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Control tells the client how to render a field. Options is only set for
// selects.
type Control struct {
	Kind    ControlKind `json:"kind"`
	Options []Option    `json:"options,omitempty"`
}

// controlKey identifies a (collection, field) pair with special rendering.
// A typed key instead of string matching means a typo here fails the lookup
// visibly rather than silently rendering a text input.
type controlKey struct {
	Collection string
	Field      string
}

// selectSpec is either a fixed option set or a reference to another
// collection whose (id, name) pairs become the options.
type selectSpec struct {
	options        []Option
	fromCollection string
}

var durationOptions = []Option{
	{Value: "1 Day", Label: "1 Day"},
	{Value: "2 Days", Label: "2 Days"},
	{Value: "7 Days", Label: "7 Days"},
	{Value: "14 Days", Label: "14 Days"},
	{Value: "30 Days", Label: "30 Days"},
}

var roleOptions = []Option{
	{Value: "customer", Label: "customer"},
	{Value: "admin", Label: "admin"},
}

var selectOverrides = map[controlKey]selectSpec{
	{Collection: "products", Field: "category_id"}: {fromCollection: "categories"},
	{Collection: "products", Field: "duration"}:    {options: durationOptions},
	{Collection: "profiles", Field: "role"}:        {options: roleOptions},
}

// controlFor resolves the control for a field: (collection, field) overrides
// first, then the description textarea special case, then the generic
// type-driven mapping.
func controlFor(ctx context.Context, src OptionSource, collection string, f Field) (Control, error) {
	if spec, ok := selectOverrides[controlKey{Collection: collection, Field: f.Name}]; ok {
		if spec.fromCollection == "" {
			return Control{Kind: ControlSelect, Options: spec.options}, nil
		}
		options, err := referenceOptions(ctx, src, spec.fromCollection)
		if err != nil {
			return Control{}, err
		}
		return Control{Kind: ControlSelect, Options: options}, nil
	}

	if f.Name == "description" {
		return Control{Kind: ControlTextarea}, nil
	}

	switch f.Type {
	case TypeBoolean:
		return Control{Kind: ControlToggle}, nil
	case TypeNumber:
		return Control{Kind: ControlNumber}, nil
	default:
		return Control{Kind: ControlText}, nil
	}
}

func referenceOptions(ctx context.Context, src OptionSource, collection string) ([]Option, error) {
	records, err := src.Select(ctx, collection, "")
	if err != nil {
		return nil, fmt.Errorf("loading %s options: %w", collection, err)
	}

	options := make([]Option, 0, len(records))
	for _, rec := range records {
		id, _ := rec["id"].(string)
		name, _ := rec["name"].(string)
		if id == "" {
			continue
		}
		options = append(options, Option{Value: id, Label: name})
	}
	return options, nil
}
