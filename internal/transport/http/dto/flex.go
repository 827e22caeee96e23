package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// OptInt is an optional integer that accepts JSON numbers, numeric strings and null.
// An empty string leaves it unset.
type OptInt struct {
	Set bool
	Int int
}

func (o *OptInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = OptInt{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := ParseOptInt(s)
		if err != nil {
			return err
		}
		*o = v
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected integer: %w", err)
	}
	*o = OptInt{Set: true, Int: n}
	return nil
}

func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Int)), nil
}

func (o OptInt) Ptr() *int {
	if !o.Set {
		return nil
	}
	v := o.Int
	return &v
}

func ParseOptInt(s string) (OptInt, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return OptInt{}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return OptInt{}, fmt.Errorf("expected integer, got %q", s)
	}
	return OptInt{Set: true, Int: n}, nil
}

// FlexBool accepts JSON booleans and the usual checkbox strings.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "null":
		*f = false
		return nil
	case "true", "false":
		*f = string(b) == "true"
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexBool(ParseBool(s))
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*f = n != 0
		return nil
	}
	return fmt.Errorf("expected boolean, got %s", string(b))
}

// ParseBool treats "1", "true", "on" and "yes" as true, anything else as false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
