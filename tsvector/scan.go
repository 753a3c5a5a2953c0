package tsvector

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
)

// Value implements driver.Valuer. Vectors travel to the database as their
// canonical text form so stored values stay inspectable with plain SQL.
func (v Vector) Value() (driver.Value, error) {
	return v.String(), nil
}

// Scan implements sql.Scanner. It accepts the canonical text form (TEXT or
// BLOB columns), a TSV1 blob, and NULL, which scans as the empty vector.
func (v *Vector) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		*v = Vector{}
		return nil
	case string:
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	case []byte:
		if isVectorBlob(s) {
			decoded, err := DecodeVector(s)
			if err != nil {
				return err
			}
			*v = decoded
			return nil
		}
		parsed, err := Parse(string(s))
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	default:
		return fmt.Errorf("tsvector: cannot scan %T into Vector", src)
	}
}

var (
	_ driver.Valuer = Vector{}
	_ sql.Scanner   = (*Vector)(nil)
)
