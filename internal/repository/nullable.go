package repository

import (
	"bytes"
	"database/sql"
	"encoding/json"
)

// Helpers shared by the SQL implementations for moving optional fields in
// and out of nullable columns.

func NullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func NullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func NullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// NullJSON stores raw JSON as text; empty input and a literal null become SQL NULL.
func NullJSON(raw json.RawMessage) any {
	if IsJSONNull(raw) {
		return nil
	}
	return string(raw)
}

// IsJSONNull reports whether raw is absent or the JSON literal null.
func IsJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func IntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func Int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func StringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// RawJSON copies a scanned JSON column; NULL yields nil.
func RawJSON(v sql.NullString) json.RawMessage {
	if !v.Valid {
		return nil
	}
	return json.RawMessage(v.String)
}
