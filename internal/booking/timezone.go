// Package booking is the scheduling and approval core: it computes offered
// slots, validates candidates, decides auto-approval and drives the
// reservation lifecycle.  Every function is pure over the values it is
// given; the only ambient input is the Clock.
package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Zone converts between stored UTC instants and the building's local
// wall-clock time.  It uses a single fixed offset with no daylight-saving
// rules.  All calendar and "is it in the past" reasoning in this package
// goes through a Zone.
type Zone struct {
	offset time.Duration
	loc    *time.Location
}

// NewZone builds a Zone for the given offset east of UTC.
func NewZone(offset time.Duration) Zone {
	return Zone{offset: offset, loc: time.FixedZone(formatOffset(offset), int(offset/time.Second))}
}

// ParseOffset accepts "Z", "UTC", "+HH:MM", "-HH:MM", "+HH" or "-HHMM".
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "z") || strings.EqualFold(s, "utc") {
		return 0, nil
	}
	sign := time.Duration(1)
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("utc offset %q must start with + or -", s)
	}
	body := strings.ReplaceAll(s[1:], ":", "")
	if len(body) != 2 && len(body) != 4 {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	h, err := strconv.Atoi(body[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid utc offset %q", s)
	}
	m := 0
	if len(body) == 4 {
		if m, err = strconv.Atoi(body[2:]); err != nil {
			return 0, fmt.Errorf("invalid utc offset %q", s)
		}
	}
	if h > 14 || m > 59 {
		return 0, fmt.Errorf("utc offset %q out of range", s)
	}
	return sign * (time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

func formatOffset(d time.Duration) string {
	if d == 0 {
		return "UTC"
	}
	sign := '+'
	if d < 0 {
		sign = '-'
		d = -d
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func (z Zone) location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Offset returns the zone's offset east of UTC.
func (z Zone) Offset() time.Duration { return z.offset }

// Location exposes the fixed location, mainly for formatting.
func (z Zone) Location() *time.Location { return z.location() }

// ToLocal converts an absolute instant to local wall-clock time.
func (z Zone) ToLocal(t time.Time) time.Time { return t.In(z.location()) }

// ToInstant interprets the wall-clock fields of local in this zone,
// ignoring whatever location local carries, and returns the UTC instant.
func (z Zone) ToInstant(local time.Time) time.Time {
	y, m, d := local.Date()
	hh, mm, ss := local.Clock()
	return time.Date(y, m, d, hh, mm, ss, local.Nanosecond(), z.location()).UTC()
}

// Now returns the clock's current instant in local time.
func (z Zone) Now(c Clock) time.Time { return z.ToLocal(c.Now()) }

// InFuture reports whether t is strictly after the current local time.
func (z Zone) InFuture(t time.Time, c Clock) bool {
	return z.ToLocal(t).After(z.Now(c))
}

// DateOf returns the local calendar date containing t.
func (z Zone) DateOf(t time.Time) Date {
	y, m, d := z.ToLocal(t).Date()
	return Date{Year: y, Month: m, Day: d}
}

// At returns the UTC instant for minutes past local midnight on d.
// Minutes may equal 24*60 to denote the following midnight.
func (z Zone) At(d Date, minutes int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, minutes, 0, 0, z.location()).UTC()
}

// SameDay reports whether a and b fall on the same local calendar date.
func (z Zone) SameDay(a, b time.Time) bool {
	return z.DateOf(a) == z.DateOf(b)
}

// Date is a local calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

// ParseTimeOfDay converts "HH:MM" into minutes past midnight.  "24:00"
// is accepted as the end of the day.
func ParseTimeOfDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return 24 * 60, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// window resolves operating hours on date d to UTC instants.
func (z Zone) window(d Date, start, end string) (time.Time, time.Time, error) {
	open, err := ParseTimeOfDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	closing, err := ParseTimeOfDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if closing <= open {
		return time.Time{}, time.Time{}, fmt.Errorf("operating hours %s-%s are empty", start, end)
	}
	return z.At(d, open), z.At(d, closing), nil
}
