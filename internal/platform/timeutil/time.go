package timeutil

import (
	"time"
)

// RFC3339Millis is the timestamp format used in API payloads.
const RFC3339Millis = "2006-01-02T15:04:05.000Z"

// RFC3339Micros is the timestamp format used in log entries.
const RFC3339Micros = "2006-01-02T15:04:05.000000Z"

// Time marshals as RFC 3339 UTC with fixed millisecond precision,
// e.g. "2024-01-15T10:30:00.000Z". Unmarshaling accepts any RFC 3339 variant;
// JSON null leaves the value untouched.
type Time struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(RFC3339Millis) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
