package cqltype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.999999999Z07:00"
)

// Accepted timestamp inputs. Go accepts an optional fractional second after
// the seconds field even when the layout has none.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	dateLayout,
}

func parseTimestamp(s string) (time.Time, error) {
	if isInteger(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s is out of range for a timestamp", s)
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a timestamp (expected YYYY-MM-DDTHH:MM:SS[.fff][Z|+hh:mm])", s)
}

// formatTimestamp falls back to epoch milliseconds for years that do not fit
// the four digit layout.
func formatTimestamp(t time.Time) string {
	t = t.UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
	return t.Format(timestampLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseTimeOfDay reads HH:MM:SS[.fffffffff] as nanoseconds since midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	bad := fmt.Errorf("%q is not a time of day (expected HH:MM:SS[.fffffffff])", s)

	clock, frac, hasFrac := strings.Cut(s, ".")
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, bad
	}
	limits := [3]int{23, 59, 59}
	var fields [3]int
	for i, p := range parts {
		if len(p) != 2 || !isDigits(p) {
			return 0, bad
		}
		n, _ := strconv.Atoi(p)
		if n > limits[i] {
			return 0, bad
		}
		fields[i] = n
	}

	var nanos int
	if hasFrac {
		if len(frac) == 0 || len(frac) > 9 || !isDigits(frac) {
			return 0, bad
		}
		nanos, _ = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
	}

	d := time.Duration(fields[0])*time.Hour +
		time.Duration(fields[1])*time.Minute +
		time.Duration(fields[2])*time.Second +
		time.Duration(nanos)
	return d, nil
}

func formatTimeOfDay(d time.Duration) string {
	if d < 0 || d >= 24*time.Hour {
		return d.String()
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	sec := (d % time.Minute) / time.Second
	ns := d % time.Second
	out := fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	if ns > 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%09d", int64(ns)), "0")
	}
	return out
}

var durationUnits = []struct {
	suffix string
	months int64
	days   int64
	nanos  int64
}{
	// longest suffixes first so "mo" and "ms" win over "m"
	{"mo", 1, 0, 0},
	{"ms", 0, 0, int64(time.Millisecond)},
	{"us", 0, 0, int64(time.Microsecond)},
	{"µs", 0, 0, int64(time.Microsecond)},
	{"ns", 0, 0, 1},
	{"y", 12, 0, 0},
	{"w", 0, 7, 0},
	{"d", 0, 1, 0},
	{"h", 0, 0, int64(time.Hour)},
	{"m", 0, 0, int64(time.Minute)},
	{"s", 0, 0, int64(time.Second)},
}

// parseDuration reads Cassandra duration syntax, e.g. "1y2mo3w4d5h6m7s8ms9us10ns".
func parseDuration(s string) (gocql.Duration, error) {
	bad := fmt.Errorf("%q is not a duration (expected e.g. 1y2mo3d4h5m6s)", s)
	outOfRange := fmt.Errorf("%q is out of range for a duration", s)

	rest := strings.ToLower(s)
	negative := strings.HasPrefix(rest, "-")
	rest = strings.TrimPrefix(rest, "-")
	if rest == "" {
		return gocql.Duration{}, bad
	}

	var months, days, nanos int64
	for rest != "" {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return gocql.Duration{}, bad
		}
		n, err := strconv.ParseInt(rest[:i], 10, 64)
		if err != nil {
			return gocql.Duration{}, bad
		}
		rest = rest[i:]

		matched := false
		for _, u := range durationUnits {
			if strings.HasPrefix(rest, u.suffix) {
				var ok bool
				if months, ok = addScaled(months, n, u.months, math.MaxInt32); !ok {
					return gocql.Duration{}, outOfRange
				}
				if days, ok = addScaled(days, n, u.days, math.MaxInt32); !ok {
					return gocql.Duration{}, outOfRange
				}
				if nanos, ok = addScaled(nanos, n, u.nanos, math.MaxInt64); !ok {
					return gocql.Duration{}, outOfRange
				}
				rest = rest[len(u.suffix):]
				matched = true
				break
			}
		}
		if !matched {
			return gocql.Duration{}, bad
		}
	}

	if negative {
		months, days, nanos = -months, -days, -nanos
	}
	return gocql.Duration{Months: int32(months), Days: int32(days), Nanoseconds: nanos}, nil
}

// addScaled returns total + n*unit, or false when the sum would pass limit.
// total, n and unit are never negative.
func addScaled(total, n, unit, limit int64) (int64, bool) {
	if unit == 0 || n == 0 {
		return total, true
	}
	if n > (limit-total)/unit {
		return 0, false
	}
	return total + n*unit, true
}

func formatDuration(d gocql.Duration) string {
	months, days, nanos := int64(d.Months), int64(d.Days), d.Nanoseconds
	if months == 0 && days == 0 && nanos == 0 {
		return "0s"
	}

	var b strings.Builder
	if months < 0 || days < 0 || nanos < 0 {
		b.WriteByte('-')
		months, days, nanos = abs64(months), abs64(days), abs64(nanos)
	}
	write := func(n int64, suffix string) {
		if n > 0 {
			b.WriteString(strconv.FormatInt(n, 10))
			b.WriteString(suffix)
		}
	}
	write(months/12, "y")
	write(months%12, "mo")
	write(days, "d")
	write(nanos/int64(time.Hour), "h")
	nanos %= int64(time.Hour)
	write(nanos/int64(time.Minute), "m")
	nanos %= int64(time.Minute)
	write(nanos/int64(time.Second), "s")
	nanos %= int64(time.Second)
	write(nanos/int64(time.Millisecond), "ms")
	nanos %= int64(time.Millisecond)
	write(nanos/int64(time.Microsecond), "us")
	write(nanos%int64(time.Microsecond), "ns")
	return b.String()
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func isInteger(s string) bool {
	return isDigits(strings.TrimPrefix(s, "-"))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
