package types

import (
	"encoding/json"
	"reflect"
	"time"
)

// dateTimeLayouts are tried in order. Layouts without a zone are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DateTime is a request timestamp. It accepts RFC 3339 as well as ISO 8601
// without an offset, which is taken to be UTC.
type DateTime struct {
	time.Time
}

// ParseDateTime parses s using the layouts DateTime accepts.
func ParseDateTime(s string) (DateTime, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime{Time: t.UTC()}, true
		}
	}
	return DateTime{}, false
}

// UnmarshalJSON reports bad input as a *json.UnmarshalTypeError so the
// decoder attributes it to the enclosing field.
func (d *DateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: reflect.TypeOf(DateTime{})}
	}
	parsed, ok := ParseDateTime(s)
	if !ok {
		return &json.UnmarshalTypeError{Value: "string " + s, Type: reflect.TypeOf(DateTime{})}
	}
	*d = parsed
	return nil
}

// MarshalJSON writes RFC 3339 in UTC.
func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.UTC().Format(time.RFC3339Nano))
}

// TimePtr returns the wrapped time, or nil for a nil receiver.
func (d *DateTime) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "value"
	}
	switch data[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
