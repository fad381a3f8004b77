package calendar

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format of a due date.
	DateLayout = "2006-01-02"

	// MonthLayout is the wire format of a month anchor.
	MonthLayout = "2006-01"
)

// Month is a month anchor: the first day of a month at UTC midnight.
// The zero value is January of year 1.
type Month struct {
	start time.Time
}

// MonthOf returns the month containing t. The day and clock of t are ignored;
// the year and month are read in t's own location.
func MonthOf(t time.Time) Month {
	y, m, _ := t.Date()
	return NewMonth(y, m)
}

// NewMonth returns the anchor for the given year and month. Out of range
// months are normalized the way time.Date does (month 13 is January of the
// following year).
func NewMonth(year int, month time.Month) Month {
	return Month{start: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM: %w", s, err)
	}
	return MonthOf(t), nil
}

// Start returns the first day of the month at UTC midnight.
func (m Month) Start() time.Time {
	if m.start.IsZero() {
		return time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return m.start
}

// Year returns the year of the month.
func (m Month) Year() int { return m.Start().Year() }

// Month returns the calendar month.
func (m Month) Month() time.Month { return m.Start().Month() }

// Next returns the following month. December rolls over into January.
func (m Month) Next() Month {
	return Month{start: m.Start().AddDate(0, 1, 0)}
}

// Prev returns the preceding month. January rolls back into December.
func (m Month) Prev() Month {
	return Month{start: m.Start().AddDate(0, -1, 0)}
}

// Days returns the number of days in the month, leap years included.
func (m Month) Days() int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(m.Year(), m.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day returns the date of the given day of the month (1-based).
func (m Month) Day(day int) time.Time {
	return time.Date(m.Year(), m.Month(), day, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month at UTC midnight.
func (m Month) End() time.Time {
	return m.Day(m.Days())
}

// Contains reports whether the calendar date of t (in t's location) falls
// in the month.
func (m Month) Contains(t time.Time) bool {
	y, mo, _ := t.Date()
	return y == m.Year() && mo == m.Month()
}

// Equal reports whether both anchors denote the same month.
func (m Month) Equal(other Month) bool {
	return m.Start().Equal(other.Start())
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return m.Start().Format(MonthLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
