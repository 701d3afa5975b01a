package filter

import (
	"errors"
	"math"
	"strconv"
	"time"
)

// span is a relative offset in whole seconds plus nanoseconds. Offsets of
// centuries exceed time.Duration, so they are never summed as one.
type span struct {
	secs  int64
	nanos int64
}

// before returns the instant s earlier than t, in t's location.
func (s span) before(t time.Time) time.Time {
	return time.Unix(t.Unix()-s.secs, int64(t.Nanosecond())-s.nanos).In(t.Location())
}

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
	week   = 7 * day
	month  = 2630016  // 30.44 days
	year   = 31557600 // 365.25 days
)

// durationUnits is case sensitive: "M" is a month, "m" a minute.
var durationUnits = map[string]span{
	"nsec": {nanos: 1}, "ns": {nanos: 1},
	"usec": {nanos: 1e3}, "us": {nanos: 1e3},
	"msec": {nanos: 1e6}, "ms": {nanos: 1e6},
	"seconds": {secs: 1}, "second": {secs: 1}, "sec": {secs: 1}, "s": {secs: 1},
	"minutes": {secs: minute}, "minute": {secs: minute}, "min": {secs: minute}, "mins": {secs: minute}, "m": {secs: minute},
	"hours": {secs: hour}, "hour": {secs: hour}, "hr": {secs: hour}, "hrs": {secs: hour}, "h": {secs: hour},
	"days": {secs: day}, "day": {secs: day}, "d": {secs: day},
	"weeks": {secs: week}, "week": {secs: week}, "w": {secs: week},
	"months": {secs: month}, "month": {secs: month}, "M": {secs: month},
	"years": {secs: year}, "year": {secs: year}, "y": {secs: year},
}

var errBadDuration = errors.New("malformed duration")

// parseDuration parses a sequence of "<integer><unit>" tokens such as
// "1d", "2weeks" or "1h 30min" and returns their sum. A sum beyond the
// int64 range of seconds is rejected.
func parseDuration(s string) (span, error) {
	var total span
	i, tokens := 0, 0
	for {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i == len(s) {
			break
		}

		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if start == i {
			return span{}, errBadDuration
		}
		n, err := strconv.ParseInt(s[start:i], 10, 64)
		if err != nil {
			return span{}, errBadDuration
		}

		for i < len(s) && s[i] == ' ' {
			i++
		}
		start = i
		for i < len(s) && isLetter(s[i]) {
			i++
		}
		unit, ok := durationUnits[s[start:i]]
		if !ok {
			return span{}, errBadDuration
		}

		secs, ok := mulInt64(n, unit.secs)
		if !ok {
			return span{}, errBadDuration
		}
		nanos, ok := mulInt64(n, unit.nanos)
		if !ok {
			return span{}, errBadDuration
		}
		secs, ok = addInt64(secs, nanos/1e9)
		if !ok {
			return span{}, errBadDuration
		}
		if total.secs, ok = addInt64(total.secs, secs); !ok {
			return span{}, errBadDuration
		}
		total.nanos += nanos % 1e9
		if total.nanos >= 1e9 {
			if total.secs, ok = addInt64(total.secs, 1); !ok {
				return span{}, errBadDuration
			}
			total.nanos -= 1e9
		}
		tokens++
	}
	if tokens == 0 {
		return span{}, errBadDuration
	}
	return total, nil
}

// mulInt64 multiplies non-negative operands, reporting false on overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a != 0 && b > math.MaxInt64/a {
		return 0, false
	}
	return a * b, true
}

// addInt64 adds non-negative operands, reporting false on overflow.
func addInt64(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
