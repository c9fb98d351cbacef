package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// RawJSON keeps a semi-structured column exactly as stored, so callers can
// inspect shapes that do not match the current schema.
type RawJSON []byte

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "null", nil
	}
	return string(r), nil
}

func (r *RawJSON) Scan(value interface{}) error {
	if r == nil {
		return fmt.Errorf("models.RawJSON: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return fmt.Errorf("models.RawJSON: unsupported Scan type %T", value)
	}
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(strings.TrimSpace(string(r))) == 0 {
		return []byte("null"), nil
	}
	if !json.Valid(r) {
		return json.Marshal(string(r))
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}
