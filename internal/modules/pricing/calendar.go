package pricing

import "time"

// MonthDay is a fixed calendar date recurring every year.
type MonthDay struct {
	Month time.Month
	Day   int
}

type HolidayCalendar interface {
	IsHoliday(country string, t time.Time) bool
}

// Calendar maps a country name to its fixed-date holidays. Country names match exactly.
// A Calendar is never mutated after construction; With returns a copy.
type Calendar struct {
	rules map[string]map[MonthDay]struct{}
}

func NewCalendar() *Calendar {
	return &Calendar{rules: map[string]map[MonthDay]struct{}{}}
}

// DefaultCalendar holds Bastille Day for France and Independence Day for the United States.
func DefaultCalendar() *Calendar {
	return NewCalendar().
		With("France", MonthDay{Month: time.July, Day: 14}).
		With("United States", MonthDay{Month: time.July, Day: 4})
}

func (c *Calendar) With(country string, days ...MonthDay) *Calendar {
	next := make(map[string]map[MonthDay]struct{}, len(c.rules)+1)
	for k, set := range c.rules {
		cp := make(map[MonthDay]struct{}, len(set))
		for d := range set {
			cp[d] = struct{}{}
		}
		next[k] = cp
	}
	set, ok := next[country]
	if !ok {
		set = make(map[MonthDay]struct{}, len(days))
		next[country] = set
	}
	for _, d := range days {
		set[d] = struct{}{}
	}
	return &Calendar{rules: next}
}

func (c *Calendar) IsHoliday(country string, t time.Time) bool {
	set, ok := c.rules[country]
	if !ok {
		return false
	}
	_, ok = set[MonthDay{Month: t.Month(), Day: t.Day()}]
	return ok
}

// Len returns the number of (country, date) rules.
func (c *Calendar) Len() int {
	n := 0
	for _, set := range c.rules {
		n += len(set)
	}
	return n
}
