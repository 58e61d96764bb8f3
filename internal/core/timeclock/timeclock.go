// Package timeclock holds the attendance time accounting: time-of-day parsing,
// worked duration, calendar-day boundaries in a fixed timezone and the
// per-day clock-in/clock-out state machine.
package timeclock

import (
	"fmt"
	"strings"
	"time"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
)

var (
	ErrInvalidTime   = errors.NewValidationError("Invalid time format", errors.ErrCodeInvalidTime)
	ErrInvalidDate   = errors.NewValidationError("Invalid date format", errors.ErrCodeInvalidDate)
	ErrOvernightSpan = errors.NewValidationError("Out time cannot be earlier than in time", errors.ErrCodeOvernightSpan)
)

var timeOfDayLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"03:04 PM",
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// TimeOfDay is a wall-clock time without a date, in seconds since midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidTime
	}
	for _, layout := range timeOfDayLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, errors.NewValidationError(fmt.Sprintf("Invalid time format: %q", s), errors.ErrCodeInvalidTime)
}

func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d", s/3600, (s%3600)/60)
}

// Duration is the worked span between clock-in and clock-out.
type Duration struct {
	Minutes int
}

// String renders the duration as HH:MM, e.g. 510 minutes is "08:30".
func (d Duration) String() string {
	return fmt.Sprintf("%02d:%02d", d.Minutes/60, d.Minutes%60)
}

func (d Duration) Std() time.Duration {
	return time.Duration(d.Minutes) * time.Minute
}

// ComputeDuration returns the elapsed time between two same-day times of day.
// A clock-out before the clock-in is rejected; spans are never wrapped over
// midnight.
func ComputeDuration(inTime, outTime string) (Duration, error) {
	in, err := ParseTimeOfDay(inTime)
	if err != nil {
		return Duration{}, err
	}
	out, err := ParseTimeOfDay(outTime)
	if err != nil {
		return Duration{}, err
	}
	if out < in {
		return Duration{}, ErrOvernightSpan
	}
	return Duration{Minutes: int(out-in) / 60}, nil
}

// Clock defines calendar days in one location. The zero value is not usable;
// build it with NewClock.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// WithNow returns a copy of the clock that reads the current instant from fn.
func (c *Clock) WithNow(fn func() time.Time) *Clock {
	cp := *c
	cp.now = fn
	return &cp
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// DayKey identifies the calendar day containing t, e.g. "2024-03-09".
func (c *Clock) DayKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

func (c *Clock) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// EndOfDay is the last millisecond of the day containing t.
func (c *Clock) EndOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), c.loc)
}

// MonthRange returns the half-open window [first of month, first of next month).
func (c *Clock) MonthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	return from, from.AddDate(0, 1, 0)
}

// ParseDate reads a calendar date or a timestamp. Plain dates are taken in the
// clock's location.
func (c *Clock) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 || layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, c.loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewValidationError(fmt.Sprintf("Invalid date format: %q", s), errors.ErrCodeInvalidDate)
}

// MonthGroup is one calendar month of a user's history. Month is 1-12.
type MonthGroup[T any] struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	Items []T `json:"attendences"`
}

// GroupByMonth partitions items by the calendar month of at(item). Groups keep
// the order in which their first item appears, and items keep input order.
func GroupByMonth[T any](c *Clock, items []T, at func(T) time.Time) []MonthGroup[T] {
	type key struct {
		year  int
		month time.Month
	}
	index := make(map[key]int)
	groups := make([]MonthGroup[T], 0)

	for _, item := range items {
		t := at(item).In(c.loc)
		k := key{year: t.Year(), month: t.Month()}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, MonthGroup[T]{Month: int(k.month), Year: k.year})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}
