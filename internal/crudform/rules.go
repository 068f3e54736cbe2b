package crudform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps field names to a human-readable validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for name, msg := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", name, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

var validate = validator.New()

// validateField checks one submitted value against its field and returns the
// normalized value to store. ok=false with an empty message means the field
// was absent and optional, so it should be omitted from the write.
func validateField(f Field, value any, present bool) (normalized any, msg string, ok bool) {
	switch f.Type {
	case TypeString:
		if !present {
			if f.Required {
				return nil, fmt.Sprintf("%s is required", f.Name), false
			}
			return nil, "", false
		}
		str, isStr := value.(string)
		if !isStr {
			return nil, fmt.Sprintf("%s must be a string", f.Name), false
		}
		if f.Required {
			if err := validate.Var(str, "required"); err != nil {
				return nil, fmt.Sprintf("%s is required", f.Name), false
			}
		}
		return str, "", true

	case TypeNumber:
		if !present {
			if f.Required {
				return nil, fmt.Sprintf("%s is required", f.Name), false
			}
			return nil, "", false
		}
		n, coerced := coerceNumber(value)
		if !coerced {
			return nil, fmt.Sprintf("%s must be a number", f.Name), false
		}
		if f.Required {
			if err := validate.Var(n, "gte=0"); err != nil {
				return nil, fmt.Sprintf("%s must be at least 0", f.Name), false
			}
		}
		return n, "", true

	case TypeBoolean:
		// Absent booleans default to false rather than failing.
		if !present {
			return false, "", true
		}
		b, isBool := value.(bool)
		if !isBool {
			return nil, fmt.Sprintf("%s must be a boolean", f.Name), false
		}
		return b, "", true

	default:
		if !present {
			return nil, "", false
		}
		return value, "", true
	}
}

// coerceNumber accepts the shapes a JSON form submission can produce for a
// numeric field.
func coerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
