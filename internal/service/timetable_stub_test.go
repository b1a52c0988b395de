package service

import (
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type stubTimetable struct {
	layout   models.Layout
	subjects map[string]models.Subject
	teachers map[string]models.Teacher
	lessons  map[string]models.Lesson
	order    []string
	grid     *models.Grid
}

func newStubTimetable(days []string, periods int, cohorts ...string) *stubTimetable {
	layout := models.Layout{Days: days, Periods: periods, Cohorts: cohorts}
	return &stubTimetable{
		layout:   layout,
		subjects: map[string]models.Subject{},
		teachers: map[string]models.Teacher{},
		lessons:  map[string]models.Lesson{},
		grid:     models.NewGrid(layout),
	}
}

func (s *stubTimetable) Subject(id string) (models.Subject, bool) {
	subject, ok := s.subjects[id]
	return subject, ok
}

func (s *stubTimetable) Teacher(id string) (models.Teacher, bool) {
	teacher, ok := s.teachers[id]
	return teacher, ok
}

func (s *stubTimetable) Lesson(id string) (models.Lesson, bool) {
	lesson, ok := s.lessons[id]
	return lesson, ok
}

func (s *stubTimetable) Grid() *models.Grid {
	return s.grid
}

func (s *stubTimetable) Lessons() []models.Lesson {
	out := make([]models.Lesson, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.lessons[id])
	}
	return out
}

func (s *stubTimetable) addSubject(id, name string, category models.SubjectCategory) {
	s.subjects[id] = models.Subject{ID: id, Name: name, Category: category}
}

func (s *stubTimetable) addTeacher(id, name string) models.Teacher {
	teacher := models.Teacher{ID: id, Name: name, Availability: models.FullAvailability(s.layout.Days, s.layout.Slots())}
	s.teachers[id] = teacher
	return teacher
}

func (s *stubTimetable) addLesson(lesson models.Lesson) models.Lesson {
	if _, exists := s.lessons[lesson.ID]; !exists {
		s.order = append(s.order, lesson.ID)
	}
	s.lessons[lesson.ID] = lesson
	return lesson
}

// doubleBookings scans every column for a teacher or room used by two placements.
func doubleBookings(grid *models.Grid) []string {
	var problems []string
	for day := 0; day < grid.Days(); day++ {
		for period := 0; period < grid.Slots(); period++ {
			teachers := map[string]string{}
			rooms := map[string]string{}
			for _, cohort := range grid.Layout().Cohorts {
				p := grid.Cell(cohort, day, period)
				if p == nil {
					continue
				}
				if p.TeacherID != "" {
					if other, ok := teachers[p.TeacherID]; ok && other != p.ID {
						problems = append(problems, "teacher "+p.TeacherID)
					}
					teachers[p.TeacherID] = p.ID
				}
				if p.RoomID != "" {
					if other, ok := rooms[p.RoomID]; ok && other != p.ID {
						problems = append(problems, "room "+p.RoomID)
					}
					rooms[p.RoomID] = p.ID
				}
			}
		}
	}
	return problems
}
