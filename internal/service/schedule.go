package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"go.uber.org/zap"
)

// ScheduleResolver maps wall-clock time to the agent's recurring activity.
type ScheduleResolver struct {
	schedule domain.Schedule
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewScheduleResolver(schedule domain.Schedule, loc *time.Location, logger *zap.Logger) *ScheduleResolver {
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleResolver{
		schedule: schedule,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source.
func (r *ScheduleResolver) SetClock(now func() time.Time) {
	r.now = now
}

// Resolve returns the first activity whose range contains now, scanning every
// range of that day's table. ok is false when nothing matches.
func (r *ScheduleResolver) Resolve(now time.Time) (activity string, ok bool) {
	now = r.InLocation(now)
	t := domain.ClockTimeOf(now)

	for _, entry := range r.schedule[domain.ScheduleDay(now)] {
		if entry.Range.Contains(t) {
			return entry.Activity, true
		}
	}
	return "", false
}

// CurrentActivity resolves the activity for the resolver's clock.
func (r *ScheduleResolver) CurrentActivity(ctx context.Context) (string, bool) {
	activity, ok := r.Resolve(r.now())
	if !ok {
		r.logger.Debug("no scheduled activity")
	}
	return activity, ok
}

// InLocation converts t to the resolver's time zone.
func (r *ScheduleResolver) InLocation(t time.Time) time.Time {
	return t.In(r.location)
}

// ScheduleForDay returns the entries for day (Monday=0 .. Sunday=6).
func (r *ScheduleResolver) ScheduleForDay(day int) []domain.ScheduleEntry {
	return r.schedule[day]
}

// BuildSchedule turns a per-day "HH:MM-HH:MM" → activity listing into a
// Schedule. Entry order within a day follows the order of ranges given.
// Days must be 0 (Monday) through 6 (Sunday) and ranges within a day must
// not overlap.
func BuildSchedule(days map[int][][2]string) (domain.Schedule, error) {
	schedule := make(domain.Schedule, len(days))
	for day, ranges := range days {
		if day < 0 || day > 6 {
			return nil, domain.Validation("build schedule", fmt.Errorf("weekday %d out of range 0-6", day))
		}
		for _, pair := range ranges {
			tr, err := domain.ParseTimeRange(pair[0])
			if err != nil {
				return nil, err
			}
			schedule[day] = append(schedule[day], domain.ScheduleEntry{
				Weekday:  day,
				Range:    tr,
				Activity: pair[1],
			})
		}
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

var weekdaySchedule = [][2]string{
	{"06:00-07:00", "Waking up, stretching and making a first coffee"},
	{"07:00-08:30", "Cycling to the office along the river"},
	{"08:30-12:00", "Deep work on machine learning experiments"},
	{"12:00-13:00", "Lunch with teammates at the food trucks"},
	{"13:00-17:00", "Reviewing model results and pairing with colleagues"},
	{"17:00-19:00", "Climbing session at the bouldering gym"},
	{"19:00-21:00", "Cooking dinner and catching up with friends"},
	{"21:00-23:00", "Reading sci-fi and sketching ideas for side projects"},
	{"23:00-06:00", "Sleeping"},
}

var weekendSchedule = [][2]string{
	{"08:00-10:00", "Slow breakfast and browsing the farmers market"},
	{"10:00-13:00", "Hiking or exploring a new neighbourhood"},
	{"13:00-15:00", "Lunch and a long coffee at a favourite cafe"},
	{"15:00-18:00", "Working on a personal art project"},
	{"18:00-21:00", "Dinner with friends"},
	{"21:00-01:00", "Live music or a late movie"},
	{"01:00-08:00", "Sleeping"},
}

// DefaultSchedule is the built-in weekly table.
func DefaultSchedule() domain.Schedule {
	days := make(map[int][][2]string, 7)
	for day := 0; day < 5; day++ {
		days[day] = weekdaySchedule
	}
	days[5] = weekendSchedule
	days[6] = weekendSchedule
	schedule, err := BuildSchedule(days)
	if err != nil {
		panic(err)
	}
	return schedule
}
