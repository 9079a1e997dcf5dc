// Package dateparse parses the heterogeneous date strings found on contact
// anniversary records. Address books store these either as "--MM-dd"
// (recurring date, year unknown) or in one of several ISO-8601 variants.
package dateparse

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseable is returned when no known format consumes the whole input.
// Callers are expected to skip the record and continue.
var ErrUnparseable = errors.New("dateparse: unrecognized date string")

// noYearFeb29 is matched before regular parsing. A plain year-less parse
// anchors to a reference year that may not be a leap year, so Feb 29th
// needs its own path.
const noYearFeb29 = "--02-29"

// noYearLayout covers the year-less "--MM-dd" form. time.Parse leaves the
// year at zero, which is exactly the "year unknown" marker we want.
const noYearLayout = "--01-02"

// withYearParsers are tried in order; the order is deliberate and affects
// the result on ambiguous input, so do not reorder.
var withYearParsers = []func(string) (time.Time, bool){
	layoutParser("2006-01-02"),
	layoutParser("2006-01-02T15:04:05.000Z"),
	layoutParser("2006-01-02T15:04Z"),
	layoutParser("20060102"),
	parseBasicWithMillis, // 20060102T150405000Z, no layout can express it
	layoutParser("20060102T150405Z"),
	layoutParser("20060102T1504Z"),
}

// AnniversaryDate parses a stored anniversary date string. yearKnown
// reports whether the input carried a year; year-less results have year 0.
// Every accepted format must consume the entire input, partial matches are
// rejected.
func AnniversaryDate(s string) (t time.Time, yearKnown bool, err error) {
	if s == noYearFeb29 {
		return time.Date(0, time.February, 29, 0, 0, 0, 0, time.UTC), false, nil
	}

	if parsed, perr := time.Parse(noYearLayout, s); perr == nil {
		return time.Date(0, parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), false, nil
	}

	for _, parse := range withYearParsers {
		if parsed, ok := parse(s); ok {
			return parsed, true, nil
		}
	}

	return time.Time{}, false, ErrUnparseable
}

func layoutParser(layout string) func(string) (time.Time, bool) {
	return func(s string) (time.Time, bool) {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// parseBasicWithMillis handles the compact "yyyyMMddTHHmmssSSSZ" form.
// Go reference layouts cannot state milliseconds without a separator, so
// the fractional part is split off by hand.
func parseBasicWithMillis(s string) (time.Time, bool) {
	const (
		stampLen = len("20060102T150405")
		totalLen = stampLen + 3 + 1 // millis + trailing Z
	)
	if len(s) != totalLen || !strings.HasSuffix(s, "Z") {
		return time.Time{}, false
	}

	base, err := time.Parse("20060102T150405", s[:stampLen])
	if err != nil {
		return time.Time{}, false
	}
	millis, err := strconv.Atoi(s[stampLen : stampLen+3])
	if err != nil || millis < 0 {
		return time.Time{}, false
	}
	return base.Add(time.Duration(millis) * time.Millisecond), true
}
