package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const (
	// SameSubjectPenalty is charged when a target cohort already has the subject that day.
	SameSubjectPenalty = 20.0
	// TeacherRepeatPenalty is charged per same-day placement of the teacher in a target row.
	TeacherRepeatPenalty = 8.0
	tieBreakWeight       = 0.001
)

// Catalog resolves the entities a lesson refers to.
type Catalog interface {
	Subject(id string) (models.Subject, bool)
	Teacher(id string) (models.Teacher, bool)
}

// SoftConstraints switches the penalty terms on or off.
type SoftConstraints struct {
	SameSubjectSameDay   bool `json:"same_subject_same_day" yaml:"same_subject_same_day"`
	TeacherRepeatSameDay bool `json:"teacher_repeat_same_day" yaml:"teacher_repeat_same_day"`
}

// StrictSoft enables every soft constraint.
func StrictSoft() SoftConstraints {
	return SoftConstraints{SameSubjectSameDay: true, TeacherRepeatSameDay: true}
}

// RelaxedSoft disables every soft constraint, leaving only the tie-break.
func RelaxedSoft() SoftConstraints {
	return SoftConstraints{}
}

// Evaluate checks placing one session of lesson at (day, period). Placements whose ids are
// listed in ignore are treated as absent. It never mutates the grid.
func Evaluate(catalog Catalog, lesson models.Lesson, day, period int, grid *models.Grid, soft SoftConstraints, ignore ...string) models.Evaluation {
	c := newCheck(catalog, lesson, day, period, grid, ignore)
	c.collect(false)
	return models.Evaluation{Violations: c.violations, Penalty: c.penalty(soft)}
}

// Legal reports whether lesson can go at (day, period) without breaching a hard constraint.
func Legal(catalog Catalog, lesson models.Lesson, day, period int, grid *models.Grid) bool {
	c := newCheck(catalog, lesson, day, period, grid, nil)
	c.collect(true)
	return len(c.violations) == 0
}

// Penalty scores a candidate without checking hard constraints.
func Penalty(lesson models.Lesson, day, period int, grid *models.Grid, soft SoftConstraints) float64 {
	c := newCheck(nil, lesson, day, period, grid, nil)
	return c.penalty(soft)
}

type check struct {
	catalog    Catalog
	lesson     models.Lesson
	day        int
	period     int
	grid       *models.Grid
	ignore     map[string]struct{}
	violations []models.Violation
}

func newCheck(catalog Catalog, lesson models.Lesson, day, period int, grid *models.Grid, ignore []string) *check {
	c := &check{
		catalog: catalog,
		lesson:  lesson,
		day:     day,
		period:  period,
		grid:    grid,
	}
	if len(ignore) > 0 {
		c.ignore = make(map[string]struct{}, len(ignore))
		for _, id := range ignore {
			c.ignore[id] = struct{}{}
		}
	}
	return c
}

func (c *check) ignored(p *models.Placement) bool {
	if p == nil {
		return true
	}
	_, ok := c.ignore[p.ID]
	return ok
}

func (c *check) add(v models.Violation) {
	v.Day = c.grid.DayName(c.day)
	v.Period = c.period
	c.violations = append(c.violations, v)
}

// collect appends hard violations in a fixed order; firstOnly stops at the first one.
func (c *check) collect(firstOnly bool) {
	done := func() bool { return firstOnly && len(c.violations) > 0 }

	if !c.grid.InBounds(c.day, c.period) {
		c.add(models.Violation{
			Kind:    models.ViolationOutOfRange,
			Message: fmt.Sprintf("day %d period %d is outside the %d×%d week", c.day, c.period, c.grid.Days(), c.grid.Slots()),
		})
		return
	}

	subject, ok := c.catalog.Subject(c.lesson.SubjectID)
	if !ok {
		c.add(models.Violation{Kind: models.ViolationUnknownSubject, Resource: c.lesson.SubjectID, Message: "lesson references a missing subject"})
		if done() {
			return
		}
	} else if subject.IsForm() != (c.period == 0) {
		msg := "only form time may use the form slot"
		if subject.IsForm() {
			msg = "form time may only use the form slot"
		}
		c.add(models.Violation{Kind: models.ViolationPeriodTypeMismatch, Resource: subject.Name, Message: msg})
		if done() {
			return
		}
	}

	if len(c.lesson.Cohorts) == 0 {
		c.add(models.Violation{Kind: models.ViolationUnknownCohort, Message: "lesson has no cohorts"})
		if done() {
			return
		}
	}
	for _, cohort := range c.lesson.Cohorts {
		row, ok := c.grid.Row(cohort)
		if !ok {
			c.add(models.Violation{Kind: models.ViolationUnknownCohort, Cohort: cohort, Message: "cohort is not configured"})
			if done() {
				return
			}
			continue
		}
		if occupant := c.grid.At(row, c.day, c.period); !c.ignored(occupant) {
			c.add(models.Violation{Kind: models.ViolationCellOccupied, Cohort: cohort, PlacementID: occupant.ID, Message: "cell already holds a lesson"})
			if done() {
				return
			}
		}
	}

	if c.lesson.TeacherID != "" {
		teacher, ok := c.catalog.Teacher(c.lesson.TeacherID)
		if !ok {
			c.add(models.Violation{Kind: models.ViolationUnknownTeacher, Resource: c.lesson.TeacherID, Message: "lesson references a missing teacher"})
			if done() {
				return
			}
		} else if !teacher.AvailableAt(c.grid.DayName(c.day), c.period) {
			c.add(models.Violation{Kind: models.ViolationTeacherUnavailable, Resource: teacher.Name, Message: "teacher does not work this slot"})
			if done() {
				return
			}
		}
		if id, ok := c.grid.TeacherAt(c.day, c.period, c.lesson.TeacherID); ok && !c.ignoredID(id) {
			c.add(models.Violation{Kind: models.ViolationTeacherDoubleBooked, Resource: c.lesson.TeacherID, PlacementID: id, Message: "teacher is already teaching in this slot"})
			if done() {
				return
			}
		}
	}

	if c.lesson.RoomID != "" {
		if id, ok := c.grid.RoomAt(c.day, c.period, c.lesson.RoomID); ok && !c.ignoredID(id) {
			c.add(models.Violation{Kind: models.ViolationRoomDoubleBooked, Resource: c.lesson.RoomID, PlacementID: id, Message: "room is already in use in this slot"})
		}
	}
}

func (c *check) ignoredID(id string) bool {
	_, ok := c.ignore[id]
	return ok
}

func (c *check) penalty(soft SoftConstraints) float64 {
	score := tieBreakWeight * float64(c.day*c.grid.Slots()+c.period)
	if !soft.SameSubjectSameDay && !soft.TeacherRepeatSameDay {
		return score
	}
	if c.day < 0 || c.day >= c.grid.Days() {
		return score
	}

	sameSubject := false
	teacherSeen := make(map[string]struct{})
	for _, cohort := range c.lesson.Cohorts {
		row, ok := c.grid.Row(cohort)
		if !ok {
			continue
		}
		for slot := 0; slot < c.grid.Slots(); slot++ {
			p := c.grid.At(row, c.day, slot)
			if c.ignored(p) {
				continue
			}
			if slot != c.period && p.SubjectID == c.lesson.SubjectID {
				sameSubject = true
			}
			if c.lesson.TeacherID != "" && p.TeacherID == c.lesson.TeacherID {
				teacherSeen[p.ID] = struct{}{}
			}
		}
	}

	if soft.SameSubjectSameDay && sameSubject {
		score += SameSubjectPenalty
	}
	if soft.TeacherRepeatSameDay {
		score += TeacherRepeatPenalty * float64(len(teacherSeen))
	}
	return score
}
