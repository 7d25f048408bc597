package services

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidAssigneeID = errors.New("assignedTo must be a user id or null")
	ErrInvalidDueDate    = errors.New("dueDate must be an RFC 3339 timestamp, a YYYY-MM-DD date or null")
)

// OptionalID tells an absent JSON field apart from an explicit null.
// Set is false when the field was absent; Value is nil for null.
type OptionalID struct {
	Set   bool
	Value *uint64
}

// OptionalTime is OptionalID for timestamps.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// ParseOptionalID accepts a positive integer, either as a JSON number or
// as a numeric string.
func ParseOptionalID(raw json.RawMessage) (OptionalID, error) {
	if len(raw) == 0 {
		return OptionalID{}, nil
	}
	if isJSONNull(raw) {
		return OptionalID{Set: true}, nil
	}

	var id uint64
	if err := json.Unmarshal(raw, &id); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return OptionalID{}, ErrInvalidAssigneeID
		}
		parsed, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return OptionalID{}, ErrInvalidAssigneeID
		}
		id = parsed
	}
	if id == 0 {
		return OptionalID{}, ErrInvalidAssigneeID
	}

	return OptionalID{Set: true, Value: &id}, nil
}

// ParseOptionalTime accepts RFC 3339 timestamps and plain dates.
func ParseOptionalTime(raw json.RawMessage) (OptionalTime, error) {
	if len(raw) == 0 {
		return OptionalTime{}, nil
	}
	if isJSONNull(raw) {
		return OptionalTime{Set: true}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return OptionalTime{}, ErrInvalidDueDate
	}
	s = strings.TrimSpace(s)

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return OptionalTime{Set: true, Value: &t}, nil
		}
	}
	return OptionalTime{}, ErrInvalidDueDate
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
