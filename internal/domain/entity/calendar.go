package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Date is a calendar date without a time of day or zone. It is comparable and
// safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes overflowing values the same way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) < len(DateLayout) {
		return fmt.Errorf("invalid date value %q", s)
	}
	parsed, err := ParseDate(s[:len(DateLayout)])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a time of day with minute precision, stored as minutes after midnight.
type ClockTime int

const minutesPerDay = 24 * 60

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime accepts HH:MM, or HH:MM:SS when the seconds are zero.
// Slots have minute precision so 10:00:45 is rejected rather than truncated.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ClockLayout, "15:04:05", "15:04:05.999999999"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Second() != 0 || t.Nanosecond() != 0 {
			return 0, fmt.Errorf("time value %q has sub-minute precision", s)
		}
		return NewClockTime(t.Hour(), t.Minute()), nil
	}
	return 0, fmt.Errorf("invalid time value %q", s)
}

func (c ClockTime) Hour() int {
	return int(c) / 60
}

func (c ClockTime) Minute() int {
	return int(c) % 60
}

func (c ClockTime) Add(minutes int) ClockTime {
	return c + ClockTime(minutes)
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer
func (c ClockTime) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", c.Hour(), c.Minute()), nil
}

// Scan implements sql.Scanner
func (c *ClockTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*c = NewClockTime(v.Hour(), v.Minute())
		return nil
	case string:
		parsed, err := ParseClockTime(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case []byte:
		parsed, err := ParseClockTime(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case int64:
		*c = ClockTime(v / int64(time.Minute/time.Microsecond))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", value)
	}
}
