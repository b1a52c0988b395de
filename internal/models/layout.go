package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Layout describes the shape of the weekly grid: one row per cohort, one block per day and
// 1+Periods slots per day (slot 0 is form/registration).
type Layout struct {
	Days    []string `json:"days" yaml:"days" validate:"required,min=1,max=7,unique,dive,required"`
	Periods int      `json:"periods" yaml:"periods" validate:"min=1,max=12"`
	Cohorts []string `json:"cohorts" yaml:"cohorts" validate:"required,min=1,unique,dive,required"`
}

// Check rejects layouts the grid cannot index: no days or cohorts, no teaching periods,
// and blank, padded or repeated day and cohort labels.
func (l Layout) Check() error {
	if len(l.Days) == 0 {
		return errors.New("layout needs at least one day")
	}
	if len(l.Cohorts) == 0 {
		return errors.New("layout needs at least one cohort")
	}
	if l.Periods < 1 {
		return errors.New("layout needs at least one period")
	}
	if err := checkLabels("day", l.Days); err != nil {
		return err
	}
	return checkLabels("cohort", l.Cohorts)
}

func checkLabels(kind string, labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for i, label := range labels {
		trimmed := strings.TrimSpace(label)
		switch {
		case trimmed == "":
			return fmt.Errorf("%s #%d is blank", kind, i+1)
		case trimmed != label:
			return fmt.Errorf("%s %q has surrounding spaces", kind, label)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%s %q is listed twice", kind, label)
		}
		seen[label] = struct{}{}
	}
	return nil
}

// Slots returns the number of slots per day including the form slot.
func (l Layout) Slots() int {
	return 1 + l.Periods
}

// Capacity is the total number of addressable cells.
func (l Layout) Capacity() int {
	return len(l.Cohorts) * len(l.Days) * l.Slots()
}

// CohortIndex returns the row of a cohort label or -1.
func (l Layout) CohortIndex(label string) int {
	for i, cohort := range l.Cohorts {
		if cohort == label {
			return i
		}
	}
	return -1
}

// DayIndex returns the position of a day name or -1.
func (l Layout) DayIndex(name string) int {
	for i, day := range l.Days {
		if day == name {
			return i
		}
	}
	return -1
}

// DayName returns the configured name for a day index.
func (l Layout) DayName(day int) string {
	if day < 0 || day >= len(l.Days) {
		return ""
	}
	return l.Days[day]
}

// InBounds reports whether a (day, period) pair addresses a column of the grid.
func (l Layout) InBounds(day, period int) bool {
	return day >= 0 && day < len(l.Days) && period >= 0 && period < l.Slots()
}

// Clone returns a deep copy.
func (l Layout) Clone() Layout {
	return Layout{
		Days:    append([]string(nil), l.Days...),
		Periods: l.Periods,
		Cohorts: append([]string(nil), l.Cohorts...),
	}
}

// PeriodLabel renders a slot the way timetables print it.
func PeriodLabel(period int) string {
	if period == 0 {
		return "Form"
	}
	return "P" + strconv.Itoa(period)
}
