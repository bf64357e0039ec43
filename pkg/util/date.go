package util

import (
	"strconv"
	"time"
)

// Layouts accepted by ParseTime, tried in order. The zone-less forms are what
// Python's isoformat() emits for naive datetimes; they are read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// unix timestamps above this are taken as milliseconds.
const unixMillisThreshold = 1e12

// ParseTime tries the known layouts and unix seconds or milliseconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return FromUnix(float64(ts)), true
	}
	return time.Time{}, false
}

// FromUnix converts a numeric unix timestamp in seconds or milliseconds.
func FromUnix(v float64) time.Time {
	if v >= unixMillisThreshold {
		return time.UnixMilli(int64(v)).UTC()
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
