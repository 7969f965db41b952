package db

import "time"

// TimeFormat is the timestamp layout used in all tables: RFC3339 in UTC.
const TimeFormat = time.RFC3339

// TimeParse parses a timestamp stored by this package. The zero time is
// returned together with the error on malformed input.
func TimeParse(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// TimeString formats a time for storage, normalized to UTC.
func TimeString(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
