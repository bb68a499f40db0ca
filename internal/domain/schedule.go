package domain

import (
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes after midnight.
type ClockTime int

const minutesPerDay = 24 * 60

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

func ClockTimeOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

// ParseClockTime parses a 24h "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, Validation("parse clock time", fmt.Errorf("%q: %w", s, err))
	}
	return ClockTimeOf(t), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TimeRange is the half-open interval [Start, End) on a 24h clock.
// Start > End means the range wraps past midnight.
type TimeRange struct {
	Start ClockTime
	End   ClockTime
}

// ParseTimeRange parses "HH:MM-HH:MM".
func ParseTimeRange(s string) (TimeRange, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return TimeRange{}, Validation("parse time range", fmt.Errorf("%q: missing '-'", s))
	}
	start, err := ParseClockTime(startStr)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := ParseClockTime(endStr)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, End: end}, nil
}

func MustParseTimeRange(s string) TimeRange {
	r, err := ParseTimeRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r TimeRange) Overnight() bool {
	return r.Start > r.End
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t ClockTime) bool {
	if r.Overnight() {
		return t >= r.Start || t < r.End
	}
	return r.Start <= t && t < r.End
}

// Overlaps reports whether the two ranges share at least one minute.
func (r TimeRange) Overlaps(o TimeRange) bool {
	for _, a := range r.segments() {
		for _, b := range o.segments() {
			if a.Start < b.End && b.Start < a.End {
				return true
			}
		}
	}
	return false
}

// segments splits an overnight range into its two same-day pieces.
func (r TimeRange) segments() []TimeRange {
	if !r.Overnight() {
		return []TimeRange{r}
	}
	return []TimeRange{{Start: r.Start, End: minutesPerDay}, {Start: 0, End: r.End}}
}

func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// ScheduleDay maps t to the schedule's weekday numbering (Monday=0 .. Sunday=6).
func ScheduleDay(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

type ScheduleEntry struct {
	Weekday  int       `json:"weekday"`
	Range    TimeRange `json:"-"`
	Activity string    `json:"activity"`
}

// Schedule holds the ordered entries for each weekday.
type Schedule map[int][]ScheduleEntry

// Validate reports overlapping ranges within a single day.
func (s Schedule) Validate() error {
	var problems []string
	for day, entries := range s {
		for i := range entries {
			for j := i + 1; j < len(entries); j++ {
				if entries[i].Range.Overlaps(entries[j].Range) {
					problems = append(problems, fmt.Sprintf("day %d: %s overlaps %s", day, entries[i].Range, entries[j].Range))
				}
			}
		}
	}
	if len(problems) > 0 {
		return Validation("validate schedule", fmt.Errorf("%s", strings.Join(problems, "; ")))
	}
	return nil
}
