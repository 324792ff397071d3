package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// HandleSet is a set of handles kept in insertion order. Each handle appears
// at most once.
type HandleSet []string

func NewHandleSet(handles ...string) HandleSet {
	s := HandleSet{}
	for _, h := range handles {
		s = s.With(h)
	}
	return s
}

func (s HandleSet) Contains(handle string) bool {
	for _, h := range s {
		if h == handle {
			return true
		}
	}
	return false
}

// With returns a copy of s that contains handle.
func (s HandleSet) With(handle string) HandleSet {
	if s.Contains(handle) {
		return s.clone()
	}
	return append(s.clone(), handle)
}

// Without returns a copy of s with handle removed.
func (s HandleSet) Without(handle string) HandleSet {
	out := make(HandleSet, 0, len(s))
	for _, h := range s {
		if h != handle {
			out = append(out, h)
		}
	}
	return out
}

// Toggle flips the membership of handle and reports whether it is now present.
func (s HandleSet) Toggle(handle string) (HandleSet, bool) {
	if s.Contains(handle) {
		return s.Without(handle), false
	}
	return s.With(handle), true
}

func (s HandleSet) clone() HandleSet {
	out := make(HandleSet, len(s))
	copy(out, s)
	return out
}

func (s HandleSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

func (s *HandleSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewHandleSet(raw...)
	return nil
}

// Value stores the set as a JSON array column.
func (s HandleSet) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *HandleSet) Scan(src any) error {
	return scanJSON(src, s)
}

func scanJSON(src any, dst any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}
