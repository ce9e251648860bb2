package service

import (
	"strings"
	"time"

	"github.com/prohmpiriya/gym-booking/internal/domain"
)

// ExpandRules turns weekly rules into dated schedules for every day in
// [from, to] (calendar days in loc). Slots already present in existing, or
// produced twice in this run, are counted as skipped. Rules with an
// unparsable start time produce nothing.
func ExpandRules(
	rules []*domain.SchedulingRule,
	from, to time.Time,
	loc *time.Location,
	existing map[domain.SlotKey]struct{},
) (schedules []*domain.Schedule, skipped int) {
	if loc == nil {
		loc = time.UTC
	}
	seen := make(map[domain.SlotKey]struct{})
	last := domain.DateOf(to, loc)

	for day := domain.DateOf(from, loc); !day.After(last); day = day.AddDate(0, 0, 1) {
		weekday := day.Weekday().String()

		for _, rule := range rules {
			if !strings.EqualFold(strings.TrimSpace(rule.DayOfWeek), weekday) {
				continue
			}
			hour, minute, err := domain.ParseClock(rule.StartTime)
			if err != nil {
				continue
			}

			start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
			key := domain.NewSlotKey(rule.ClassID, start)
			if _, ok := existing[key]; ok {
				skipped++
				continue
			}
			if _, ok := seen[key]; ok {
				skipped++
				continue
			}
			seen[key] = struct{}{}

			schedules = append(schedules, &domain.Schedule{
				ClassID:   rule.ClassID,
				StartTime: start,
				EndTime:   start.Add(domain.MinutesOrDefault(rule.ClassDuration)),
			})
		}
	}
	return schedules, skipped
}

// calendarDays counts the days in [from, to], both inclusive
func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) + 1
}
