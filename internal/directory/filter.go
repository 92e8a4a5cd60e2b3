package directory

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Filter is the typed form of a group's dynamic audience filter. Exactly
// three user attributes are queryable; each is optional and set fields
// combine as a conjunction. This is deliberately not a general query
// language.
type Filter struct {
	Role     *string
	IsActive *bool
	Username *string
}

// IsEmpty reports whether no field of the filter is set.
func (f Filter) IsEmpty() bool {
	return f.Role == nil && f.IsActive == nil && f.Username == nil
}

// ParseFilter decodes a group's stored JSON filter object into a Filter,
// silently dropping any key outside the recognized set. Values for
// is_active accept both JSON booleans and "true"/"false" strings.
func ParseFilter(raw string) (Filter, error) {
	var f Filter
	if raw == "" {
		return f, nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return f, fmt.Errorf("directory: parse filter: %w", err)
	}

	for key, val := range obj {
		switch key {
		case "role":
			if s, ok := val.(string); ok {
				f.Role = &s
			}
		case "username":
			if s, ok := val.(string); ok {
				f.Username = &s
			}
		case "isActive", "is_active":
			switch v := val.(type) {
			case bool:
				f.IsActive = &v
			case string:
				if b, err := strconv.ParseBool(v); err == nil {
					f.IsActive = &b
				}
			}
		}
		// Unknown keys are ignored: the allow-list is the contract.
	}
	return f, nil
}
