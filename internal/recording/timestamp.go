package recording

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"matchreel/internal/services"
)

var stampPattern = regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})[ _-](\d{2})[-_](\d{2})[-_](\d{2})`)

// NameParseError reports a recording name that carries no usable timestamp.
type NameParseError struct {
	Name   string
	Reason string
}

func (e *NameParseError) Error() string {
	return fmt.Sprintf("parse start time from %q: %s", e.Name, e.Reason)
}

func (e *NameParseError) Unwrap() error { return services.ErrNameParse }

// StartTimeFromPath parses the capture start encoded in path's file name,
// interpreting it in the named IANA zone.
func StartTimeFromPath(path, tzName string) (time.Time, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(tzName))
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrConfiguration, "recording", "load timezone", tzName, err)
	}
	return ParseStartTime(filepath.Base(path), loc)
}

// ParseStartTime finds a YYYY-MM-DD HH-MM-SS stamp anywhere in name's stem and
// returns it as a UTC instant. Wall times inside a spring-forward gap use the
// offset in force before the transition; ambiguous fall-back times resolve to
// their first occurrence.
func ParseStartTime(name string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := stampPattern.FindStringSubmatch(stem)
	if m == nil {
		return time.Time{}, &NameParseError{Name: name, Reason: "no YYYY-MM-DD HH-MM-SS timestamp found"}
	}
	fields := make([]int, 6)
	for i := range fields {
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, &NameParseError{Name: name, Reason: err.Error()}
		}
		fields[i] = v
	}
	w := wallClock{year: fields[0], month: time.Month(fields[1]), day: fields[2], hour: fields[3], minute: fields[4], second: fields[5]}
	if !w.valid() {
		return time.Time{}, &NameParseError{Name: name, Reason: fmt.Sprintf("timestamp %q is out of range", m[0])}
	}
	return w.instant(loc).UTC(), nil
}

type wallClock struct {
	year   int
	month  time.Month
	day    int
	hour   int
	minute int
	second int
}

func (w wallClock) naive() time.Time {
	return time.Date(w.year, w.month, w.day, w.hour, w.minute, w.second, 0, time.UTC)
}

// valid rejects fields that time.Date would silently normalize.
func (w wallClock) valid() bool {
	return w.matches(w.naive())
}

func (w wallClock) matches(t time.Time) bool {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return y == w.year && mo == w.month && d == w.day && h == w.hour && mi == w.minute && s == w.second
}

func (w wallClock) instant(loc *time.Location) time.Time {
	naive := w.naive()
	_, offBefore := naive.Add(-12 * time.Hour).In(loc).Zone()
	_, offAfter := naive.Add(12 * time.Hour).In(loc).Zone()

	var found []time.Time
	for _, off := range []int{offBefore, offAfter} {
		candidate := naive.Add(-time.Duration(off) * time.Second)
		if !w.matches(candidate.In(loc)) {
			continue
		}
		if len(found) == 1 && found[0].Equal(candidate) {
			continue
		}
		found = append(found, candidate)
	}
	switch len(found) {
	case 0:
		return naive.Add(-time.Duration(offBefore) * time.Second)
	case 1:
		return found[0]
	default:
		if found[1].Before(found[0]) {
			return found[1]
		}
		return found[0]
	}
}
