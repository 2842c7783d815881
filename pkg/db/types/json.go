package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LeadField is one raw field captured from a lead form submission. Order is
// preserved exactly as the form delivered it.
type LeadField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LeadFieldList stores the ordered field data as a JSON column.
type LeadFieldList []LeadField

// Value implements driver.Valuer.
func (l LeadFieldList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal lead fields: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *LeadFieldList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	raw, err := bytesFromSource(src)
	if err != nil {
		return fmt.Errorf("scan lead fields: %w", err)
	}
	return json.Unmarshal(raw, l)
}

// JSONMap stores loosely-shaped JSON documents (attribution payloads,
// insights rows) as a JSON column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal json map: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	raw, err := bytesFromSource(src)
	if err != nil {
		return fmt.Errorf("scan json map: %w", err)
	}
	return json.Unmarshal(raw, m)
}

// JSONDocument stores an arbitrary JSON value without imposing a shape; the
// insights payload is a list of rows, so a map type would not fit.
type JSONDocument json.RawMessage

// Value implements driver.Valuer.
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "null", nil
	}
	return string(d), nil
}

// Scan implements sql.Scanner.
func (d *JSONDocument) Scan(src any) error {
	if src == nil {
		*d = nil
		return nil
	}
	raw, err := bytesFromSource(src)
	if err != nil {
		return fmt.Errorf("scan json document: %w", err)
	}
	*d = append((*d)[:0], raw...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *JSONDocument) UnmarshalJSON(data []byte) error {
	*d = append((*d)[:0], data...)
	return nil
}

func bytesFromSource(src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported source type %T", src)
	}
}
