package protocol

import (
	"bytes"
	"strconv"
	"time"
)

// dotNetUnixEpochTicks is 1970-01-01T00:00:00Z expressed in .NET ticks
// (100ns intervals since 0001-01-01).
const dotNetUnixEpochTicks = 621355968000000000

// Timestamp accepts the several encodings the client uses for "timestamp":
// .NET ticks or unix milliseconds, as a JSON string or number, or RFC 3339 text.
// Unrecognized values decode to the zero time rather than failing the message.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		return nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = fromInteger(n)
		return nil
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed.UTC()
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(time.RFC3339Nano))), nil
}

func fromInteger(n int64) time.Time {
	switch {
	case n > 1e17:
		return time.Unix(0, (n-dotNetUnixEpochTicks)*100).UTC()
	case n > 1e11:
		return time.UnixMilli(n).UTC()
	default:
		return time.Unix(n, 0).UTC()
	}
}
