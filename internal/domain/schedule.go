package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is one dated occurrence of a class
type Schedule struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate validates the schedule times
func (s *Schedule) Validate() error {
	if s.ClassID == "" {
		return ErrInvalidClassID
	}
	if !s.EndTime.After(s.StartTime) {
		return ErrInvalidScheduleTime
	}
	return nil
}

// BookingDate returns the calendar date of the start time in loc
func (s *Schedule) BookingDate(loc *time.Location) time.Time {
	return DateOf(s.StartTime, loc)
}

// ScheduleWithClass is a schedule joined with its class for listings
type ScheduleWithClass struct {
	Schedule
	Class          ClassDefinition `json:"class"`
	BookedSpots    int             `json:"booked_spots"`
	IsBookedByUser bool            `json:"is_booked_by_user"`
}

// AvailableSpots returns capacity minus booked spots, never below zero
func (s *ScheduleWithClass) AvailableSpots() int {
	return max(s.Class.Capacity-s.BookedSpots, 0)
}

// SlotKey identifies a schedule by class and start instant
type SlotKey struct {
	ClassID string
	Start   int64 // unix seconds
}

// NewSlotKey builds the dedup key used by the generator
func NewSlotKey(classID string, start time.Time) SlotKey {
	return SlotKey{ClassID: classID, Start: start.Unix()}
}

// SchedulingRule says "class X every <weekday> at HH:MM"
type SchedulingRule struct {
	ID        string    `json:"id"`
	DayOfWeek string    `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	ClassID   string    `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`

	// Joined from classes
	ClassName     string `json:"class_name,omitempty"`
	ClassDuration int    `json:"class_duration,omitempty"`
}

// Validate checks the weekday name and the clock time, normalizing the weekday
func (r *SchedulingRule) Validate() error {
	if r.ClassID == "" {
		return ErrInvalidClassID
	}
	day, ok := ParseWeekday(r.DayOfWeek)
	if !ok {
		return ErrInvalidDayOfWeek
	}
	r.DayOfWeek = day.String()
	r.StartTime = strings.TrimSpace(r.StartTime)
	if _, _, err := ParseClock(r.StartTime); err != nil {
		return err
	}
	return nil
}

// BusinessHours are the opening hours shown to members for one weekday.
// Any of the four fields may be nil when the gym is closed for that half of the day.
type BusinessHours struct {
	DayOfWeek      string    `json:"day_of_week"`
	MorningOpen    *string   `json:"morning_open"`
	MorningClose   *string   `json:"morning_close"`
	AfternoonOpen  *string   `json:"afternoon_open"`
	AfternoonClose *string   `json:"afternoon_close"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks the weekday and every non-nil clock value
func (b *BusinessHours) Validate() error {
	day, ok := ParseWeekday(b.DayOfWeek)
	if !ok {
		return ErrInvalidDayOfWeek
	}
	b.DayOfWeek = day.String()
	for _, v := range []*string{b.MorningOpen, b.MorningClose, b.AfternoonOpen, b.AfternoonClose} {
		if v == nil {
			continue
		}
		if _, _, err := ParseClock(*v); err != nil {
			return err
		}
	}
	return nil
}

// ParseWeekday accepts an English weekday name in any case
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return 0, false
}

// ParseClock parses "HH:MM" (24h)
func ParseClock(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	hour, err1 := strconv.Atoi(hh)
	minute, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	return hour, minute, nil
}

// CalendarDate places the year, month and day of d at midnight in loc
// without converting between zones. pgx scans DATE columns as UTC midnight.
func CalendarDate(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// DateOf truncates t to midnight of its calendar day in loc
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
