package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type defaultSubject struct {
	name  string
	count int
}

// FormTimeSubject is the registration subject confined to slot 0.
const FormTimeSubject = "Form Time"

var defaultSubjects = []defaultSubject{
	{FormTimeSubject, 0},
	{"English Language", 3},
	{"Mathematics", 3},
	{"Science", 3},
	{"History", 2},
	{"Geography", 2},
	{"Religious Education", 1},
	{"Business Studies", 1},
	{"German", 2},
	{"French", 2},
	{"Spanish", 1},
	{"Art & Design", 1},
	{"Drama", 1},
	{"Music", 1},
	{"Fashion Design", 1},
	{"Food Technology", 2},
	{"Design Technology", 1},
	{"Computer Science", 2},
	{"Sociology", 1},
	{"Child Development", 1},
	{"Psychology", 1},
	{"Economics", 1},
	{"Physical Education", 1},
	{"Sports Science", 1},
}

// DefaultLayout is the week used when nothing is configured.
func DefaultLayout() models.Layout {
	return models.Layout{
		Days:    []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		Periods: 5,
		Cohorts: []string{"Y7", "Y8", "Y9", "Y10", "Y11", "LSU", "SF"},
	}
}

func defaultRoomNames() []string {
	var names []string
	for i := 101; i <= 116; i++ {
		names = append(names, fmt.Sprintf("G-%d", i))
	}
	for i := 117; i <= 126; i++ {
		names = append(names, fmt.Sprintf("F-%d", i))
	}
	for i := 127; i <= 138; i++ {
		names = append(names, fmt.Sprintf("S-%d", i))
	}
	return names
}

// subjectColor spreads hues so neighbouring subjects stay distinguishable.
func subjectColor(index int) string {
	return fmt.Sprintf("hsl(%d 70%% 60%%)", (index*47)%360)
}
