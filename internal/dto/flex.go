package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString accepts a JSON string or number and keeps its textual form.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the trimmed value.
func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// ScheduleTags is a list of weekday tags. A single scalar is accepted and
// normalised to a one-element list.
type ScheduleTags []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *ScheduleTags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if strings.TrimSpace(tag) == "" {
			*s = ScheduleTags{}
			return nil
		}
		*s = ScheduleTags{tag}
		return nil
	default:
		var tags []string
		if err := json.Unmarshal(data, &tags); err != nil {
			return fmt.Errorf("schedule must be a string or a list of strings: %w", err)
		}
		*s = tags
		return nil
	}
}

// AttendanceData is the record list of a batch mark. Clients may send the
// list itself or a JSON string that encodes it.
type AttendanceData []AttendanceEntry

// UnmarshalJSON implements json.Unmarshaler.
func (a *AttendanceData) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		data = []byte(encoded)
	}
	var entries []AttendanceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("attendanceData must be a list of records: %w", err)
	}
	*a = entries
	return nil
}
