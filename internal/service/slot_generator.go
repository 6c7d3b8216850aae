package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-booking/internal/domain/entity"
)

var ErrInvalidWorkingHours = errors.New("invalid working hours")

// WorkingHours describes the clinic's bookable day. End is exclusive.
type WorkingHours struct {
	Start       entity.ClockTime
	End         entity.ClockTime
	SlotMinutes int
	WeekendDays []time.Weekday
}

// DefaultWorkingHours is Monday to Friday, 09:00 to 18:00, in 30 minute slots.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{
		Start:       entity.NewClockTime(9, 0),
		End:         entity.NewClockTime(18, 0),
		SlotMinutes: 30,
		WeekendDays: []time.Weekday{time.Saturday, time.Sunday},
	}
}

// ParseWorkingHours builds WorkingHours from configuration values.
func ParseWorkingHours(start, end string, slotMinutes int, weekend []string) (WorkingHours, error) {
	startTime, err := entity.ParseClockTime(start)
	if err != nil {
		return WorkingHours{}, fmt.Errorf("%w: start: %v", ErrInvalidWorkingHours, err)
	}
	endTime, err := entity.ParseClockTime(end)
	if err != nil {
		return WorkingHours{}, fmt.Errorf("%w: end: %v", ErrInvalidWorkingHours, err)
	}

	days := make([]time.Weekday, 0, len(weekend))
	for _, name := range weekend {
		day, ok := parseWeekday(name)
		if !ok {
			return WorkingHours{}, fmt.Errorf("%w: unknown weekday %q", ErrInvalidWorkingHours, name)
		}
		days = append(days, day)
	}

	return WorkingHours{
		Start:       startTime,
		End:         endTime,
		SlotMinutes: slotMinutes,
		WeekendDays: days,
	}, nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, true
		}
	}
	return 0, false
}

func (h WorkingHours) validate() error {
	if h.SlotMinutes <= 0 {
		return fmt.Errorf("%w: slot length must be positive", ErrInvalidWorkingHours)
	}
	if !h.Start.Valid() || !h.End.Valid() || h.End <= h.Start {
		return fmt.Errorf("%w: end must be after start", ErrInvalidWorkingHours)
	}
	return nil
}

// SlotGenerator enumerates the fixed-size slots of a date range.
type SlotGenerator struct {
	hours   WorkingHours
	weekend map[time.Weekday]bool
}

func NewSlotGenerator(hours WorkingHours) (*SlotGenerator, error) {
	if err := hours.validate(); err != nil {
		return nil, err
	}

	weekend := make(map[time.Weekday]bool, len(hours.WeekendDays))
	for _, d := range hours.WeekendDays {
		weekend[d] = true
	}

	return &SlotGenerator{hours: hours, weekend: weekend}, nil
}

func (g *SlotGenerator) WorkingHours() WorkingHours {
	return g.hours
}

// SlotsPerDay is the number of slots of an open day.
func (g *SlotGenerator) SlotsPerDay() int {
	span := int(g.hours.End - g.hours.Start)
	return (span + g.hours.SlotMinutes - 1) / g.hours.SlotMinutes
}

func (g *SlotGenerator) IsClosed(date entity.Date) bool {
	return g.weekend[date.Weekday()]
}

// GenerateSlots walks every date from start to end inclusive and returns the
// slots of open days in ascending order. A slot is unavailable iff its
// (date, time) is in booked. A reversed range yields no slots.
func (g *SlotGenerator) GenerateSlots(start, end entity.Date, booked entity.SlotSet) []entity.Slot {
	slots := []entity.Slot{}
	if end.Before(start) {
		return slots
	}

	for date := start; !date.After(end); date = date.AddDays(1) {
		if g.IsClosed(date) {
			continue
		}
		for t := g.hours.Start; t < g.hours.End; t = t.Add(g.hours.SlotMinutes) {
			slots = append(slots, entity.Slot{
				Date:      date,
				Time:      t,
				Available: !booked.Has(entity.SlotKey{Date: date, Time: t}),
			})
		}
	}

	return slots
}

// IsSlotStart reports whether t is the start of a slot on an open date.
func (g *SlotGenerator) IsSlotStart(date entity.Date, t entity.ClockTime) bool {
	if g.IsClosed(date) || t < g.hours.Start || t >= g.hours.End {
		return false
	}
	return int(t-g.hours.Start)%g.hours.SlotMinutes == 0
}
