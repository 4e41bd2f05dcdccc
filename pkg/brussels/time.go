package brussels

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Time is a request timestamp. RFC 3339 values are taken as given; values
// without an offset are read as Brussels wall-clock time.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)

	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err := ParseLocal(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// Ptr returns the instant, or nil for a nil Time.
func (t *Time) Ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
