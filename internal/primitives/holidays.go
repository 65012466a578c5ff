package primitives

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Calendar names accepted by NewHolidayCalendar.
const (
	CalendarNewYearsDay = "new_years_day"
	CalendarUSFederal   = "us_federal"
)

// holidayRule yields the date of a holiday in a given year.
type holidayRule struct {
	name string
	date func(year int) (time.Time, bool)
}

// HolidayCalendar is a deterministic, rule-based set of holidays.
type HolidayCalendar struct {
	name  string
	rules []holidayRule
}

// NewHolidayCalendar returns a built-in calendar by name.
func NewHolidayCalendar(name string) (*HolidayCalendar, error) {
	switch Canonical(name) {
	case "", CalendarNewYearsDay:
		return NewYearsDay(), nil
	case CalendarUSFederal:
		return USFederal(), nil
	default:
		return nil, fmt.Errorf("unknown holiday calendar %q (available: %s, %s)",
			name, CalendarNewYearsDay, CalendarUSFederal)
	}
}

// NewYearsDay returns a calendar holding January 1st of every year.
func NewYearsDay() *HolidayCalendar {
	return &HolidayCalendar{
		name:  CalendarNewYearsDay,
		rules: []holidayRule{fixed("New Year's Day", time.January, 1)},
	}
}

// USFederal returns the United States federal holidays, without observed
// weekday shifts.
func USFederal() *HolidayCalendar {
	return &HolidayCalendar{
		name: CalendarUSFederal,
		rules: []holidayRule{
			fixed("New Year's Day", time.January, 1),
			nthWeekday("Martin Luther King Jr. Day", time.January, time.Monday, 3),
			nthWeekday("Washington's Birthday", time.February, time.Monday, 3),
			nthWeekday("Memorial Day", time.May, time.Monday, -1),
			since(2021, fixed("Juneteenth National Independence Day", time.June, 19)),
			fixed("Independence Day", time.July, 4),
			nthWeekday("Labor Day", time.September, time.Monday, 1),
			nthWeekday("Columbus Day", time.October, time.Monday, 2),
			fixed("Veterans Day", time.November, 11),
			nthWeekday("Thanksgiving", time.November, time.Thursday, 4),
			fixed("Christmas Day", time.December, 25),
		},
	}
}

// Name returns the calendar name
func (c *HolidayCalendar) Name() string {
	return c.name
}

// Holidays returns the holiday dates of a year in ascending order.
func (c *HolidayCalendar) Holidays(year int) []time.Time {
	var out []time.Time
	for _, r := range c.rules {
		if d, ok := r.date(year); ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Distance returns the signed number of days from d to the nearest holiday:
// positive when the holiday lies ahead of d, negative when it has passed.
// When two holidays are equally near, the earlier one is used.
func (c *HolidayCalendar) Distance(d time.Time) (int, bool) {
	day := truncateDay(d)

	var candidates []time.Time
	for y := day.Year() - 1; y <= day.Year()+1; y++ {
		candidates = append(candidates, c.Holidays(y)...)
	}
	if len(candidates) == 0 {
		return 0, false
	}

	best, bestAbs := 0, math.MaxInt
	for _, h := range candidates {
		diff := daysBetween(day, h)
		abs := diff
		if abs < 0 {
			abs = -abs
		}
		// candidates are ascending, so strict < keeps the earlier holiday on ties
		if abs < bestAbs {
			best, bestAbs = diff, abs
		}
	}
	return best, true
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func fixed(name string, month time.Month, day int) holidayRule {
	return holidayRule{name: name, date: func(year int) (time.Time, bool) {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}}
}

// nthWeekday is the n-th given weekday of a month; n = -1 is the last one.
func nthWeekday(name string, month time.Month, wd time.Weekday, n int) holidayRule {
	return holidayRule{name: name, date: func(year int) (time.Time, bool) {
		if n < 0 {
			last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
			back := (int(last.Weekday()) - int(wd) + 7) % 7
			return last.AddDate(0, 0, -back), true
		}
		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		ahead := (int(wd) - int(first.Weekday()) + 7) % 7
		return first.AddDate(0, 0, ahead+7*(n-1)), true
	}}
}

func since(firstYear int, r holidayRule) holidayRule {
	return holidayRule{name: r.name, date: func(year int) (time.Time, bool) {
		if year < firstYear {
			return time.Time{}, false
		}
		return r.date(year)
	}}
}
