/* timeparse.go
 * Parses the timestamps and dates graded pages render
 */

package grading

import (
	"strconv"
	"strings"
	"time"
)

// ProximityWindow is how far a rendered timestamp may be from the expected instant
const ProximityWindow = 1_000_000 * time.Millisecond

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.UnixDate,
	time.DateTime,
	time.DateOnly,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"1/2/2006",
}

// ParseTimestamp reads a rendered instant: milliseconds since the epoch, or one of the
// common date / date-time layouts. Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// WithinWindow reports whether got is within ProximityWindow of want, inclusive
func WithinWindow(got, want time.Time) bool {
	d := got.Sub(want)
	if d < 0 {
		d = -d
	}
	return d <= ProximityWindow
}
