package timeutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeMarshalFixedMillis(t *testing.T) {
	ts := Time{Time: time.Date(2024, 1, 15, 12, 30, 0, 0, time.FixedZone("EET", 2*3600))}
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-01-15T10:30:00.000Z"` {
		t.Fatalf("unexpected JSON %s", data)
	}
}

func TestTimeUnmarshal(t *testing.T) {
	var ts Time
	if err := json.Unmarshal([]byte(`"2024-01-15T10:30:00.123456Z"`), &ts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ts.Nanosecond() != 123456000 {
		t.Fatalf("unexpected nanoseconds %d", ts.Nanosecond())
	}

	before := ts
	if err := json.Unmarshal([]byte(`null`), &ts); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !ts.Equal(before.Time) {
		t.Fatal("null must preserve the existing value")
	}

	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatal("expected parse error")
	}
}
