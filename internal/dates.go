package internal

import (
	"fmt"
	"strings"
	"time"
)

// appleEpoch is the reference date for timestamps embedded in app payloads
var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// FormatTime renders a timestamp as "May 17, 2022  5:29:42 PM".
// The hour is space padded to two columns.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s %2d:%s", t.Format("Jan 02, 2006"), hour, t.Format("04:05 PM"))
}

// FromAppleSeconds converts seconds since 2001-01-01 UTC to a time.Time
func FromAppleSeconds(seconds int64) time.Time {
	return appleEpoch.Add(time.Duration(seconds) * time.Second)
}

// ReadableDiff renders the gap between two timestamps as
// "1 day, 2 hours, 3 minutes, 4 seconds". It returns an empty string when
// either timestamp is missing, end precedes start, or the gap is under a second.
func ReadableDiff(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	seconds := end.Unix() - start.Unix()
	if seconds <= 0 {
		return ""
	}

	units := []struct {
		size int64
		name string
	}{
		{86400, "day"},
		{3600, "hour"},
		{60, "minute"},
		{1, "second"},
	}

	var parts []string
	for _, u := range units {
		n := seconds / u.size
		seconds %= u.size
		if n == 0 {
			continue
		}
		name := u.name
		if n != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, name))
	}
	return strings.Join(parts, ", ")
}
