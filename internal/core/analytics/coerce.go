package analytics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateWrapperKey is the extended JSON key document stores use for dates.
const dateWrapperKey = "$date"

// maxEpochMillis bounds numeric dates to ±100,000,000 days around the epoch,
// the range document stores and browsers accept as a valid date.
const maxEpochMillis = 8.64e15

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// CoerceDate normalizes the date shapes found in stored records into a
// time.Time. The second result is false when v holds no usable date.
//
// Accepted shapes: time.Time and *time.Time (returned as a copy), finite
// numbers as epoch milliseconds, date strings, and maps carrying a "$date"
// key whose value is itself coercible.
func CoerceDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return d, true
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return *d, true
	case int:
		return fromEpochMillis(int64(d))
	case int32:
		return fromEpochMillis(int64(d))
	case int64:
		return fromEpochMillis(d)
	case uint:
		return fromEpochMillis(int64(d))
	case uint32:
		return fromEpochMillis(int64(d))
	case uint64:
		if d > maxEpochMillis {
			return time.Time{}, false
		}
		return fromEpochMillis(int64(d))
	case float32:
		return fromEpochFloat(float64(d))
	case float64:
		return fromEpochFloat(d)
	case json.Number:
		if n, err := d.Int64(); err == nil {
			return fromEpochMillis(n)
		}
		if f, err := d.Float64(); err == nil {
			return fromEpochFloat(f)
		}
		return time.Time{}, false
	case string:
		return parseDateString(d)
	case map[string]any:
		inner, ok := d[dateWrapperKey]
		if !ok {
			return time.Time{}, false
		}
		if long, ok := inner.(map[string]any); ok {
			if n, ok := long["$numberLong"]; ok {
				return parseNumberLong(n)
			}
		}
		return CoerceDate(inner)
	default:
		return time.Time{}, false
	}
}

// fromEpochMillis rejects instants outside ±maxEpochMillis
func fromEpochMillis(ms int64) (time.Time, bool) {
	if ms > maxEpochMillis || ms < -maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func fromEpochFloat(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return time.Time{}, false
	}
	return fromEpochMillis(int64(f))
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseNumberLong(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return fromEpochMillis(ms)
}
