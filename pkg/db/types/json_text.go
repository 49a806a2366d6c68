package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONText stores a JSON document in a text column so the same schema works
// on Postgres and SQLite.
type JSONText json.RawMessage

func (j *JSONText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = nil
	case string:
		*j = JSONText(v)
	case []byte:
		*j = append(JSONText(nil), v...)
	default:
		return fmt.Errorf("JSONText: unsupported Scan type %T", src)
	}
	return nil
}

func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("JSONText: invalid json")
	}
	return string(j), nil
}

// Raw returns the document as a json.RawMessage.
func (j JSONText) Raw() json.RawMessage {
	return json.RawMessage(j)
}

func (j JSONText) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSONText) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}
