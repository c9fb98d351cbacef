package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray is a code or domain list stored as a JSON array. Rows written
// before the JSON format hold comma-separated text; Scan splits those so the
// license migrator can rewrite them.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringArray) Scan(value interface{}) error {
	if a == nil {
		return fmt.Errorf("models.StringArray: Scan on nil pointer")
	}
	var raw string
	switch v := value.(type) {
	case nil:
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.StringArray: unsupported Scan type %T", value)
	}
	*a = parseStringArray(raw)
	return nil
}

func parseStringArray(raw string) StringArray {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return StringArray{}
	}
	if raw[0] == '[' {
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return StringArray(arr)
		}
	}
	if raw[0] == '"' {
		var single string
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			raw = single
		}
	}
	out := StringArray{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
