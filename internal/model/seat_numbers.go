package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SeatNumbers is an ordered list of seat numbers stored as a JSON array
// column.  A NULL column scans into a nil slice.
type SeatNumbers []int

// Value implements driver.Valuer.  A nil slice is written as NULL.
func (s SeatNumbers) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal([]int(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *SeatNumbers) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("seat numbers: unsupported column type %T", src)
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("seat numbers: %w", err)
	}
	*s = out
	return nil
}
