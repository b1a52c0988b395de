package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func evaluatorFixture() *stubTimetable {
	tt := newStubTimetable([]string{"Mon", "Tue"}, 4, "Y7", "Y8", "Y9")
	tt.addSubject("form", "Form Time", models.SubjectCategoryForm)
	tt.addSubject("maths", "Mathematics", models.SubjectCategoryStandard)
	tt.addSubject("art", "Art", models.SubjectCategoryStandard)
	tt.addTeacher("t1", "Ada Lovelace")
	tt.addTeacher("t2", "Alan Turing")
	return tt
}

func TestEvaluatePeriodTypeMismatch(t *testing.T) {
	tt := evaluatorFixture()

	eval := Evaluate(tt, models.Lesson{ID: "l1", Cohorts: []string{"Y7"}, SubjectID: "maths"}, 0, 0, tt.grid, StrictSoft())
	assert.Equal(t, []models.ViolationKind{models.ViolationPeriodTypeMismatch}, eval.Kinds())

	eval = Evaluate(tt, models.Lesson{ID: "l2", Cohorts: []string{"Y7"}, SubjectID: "form"}, 0, 2, tt.grid, StrictSoft())
	assert.True(t, eval.Has(models.ViolationPeriodTypeMismatch))

	eval = Evaluate(tt, models.Lesson{ID: "l2", Cohorts: []string{"Y7"}, SubjectID: "form"}, 0, 0, tt.grid, StrictSoft())
	assert.True(t, eval.Legal())
}

func TestEvaluateTeacherAndRoomExclusiveAcrossRows(t *testing.T) {
	tt := evaluatorFixture()
	require.NoError(t, tt.grid.Place(&models.Placement{ID: "busy", LessonID: "x", SubjectID: "art", TeacherID: "t1", RoomID: "r1", Cohorts: []string{"Y9"}, Day: 1, Period: 2}))

	lesson := models.Lesson{ID: "l1", Cohorts: []string{"Y7"}, SubjectID: "maths", TeacherID: "t1", RoomID: "r1"}
	eval := Evaluate(tt, lesson, 1, 2, tt.grid, StrictSoft())
	assert.ElementsMatch(t, []models.ViolationKind{models.ViolationTeacherDoubleBooked, models.ViolationRoomDoubleBooked}, eval.Kinds())

	v, ok := eval.First(models.ViolationTeacherDoubleBooked)
	require.True(t, ok)
	assert.Equal(t, "busy", v.PlacementID)
	assert.Equal(t, "Tue", v.Day)
	assert.Equal(t, 2, v.Period)

	assert.True(t, Evaluate(tt, lesson, 1, 2, tt.grid, StrictSoft(), "busy").Legal(), "ignored placements free their resources")
	assert.True(t, Legal(tt, lesson, 1, 3, tt.grid))
}

func TestEvaluateTeacherUnavailable(t *testing.T) {
	tt := evaluatorFixture()
	teacher := tt.teachers["t2"]
	teacher.Availability["Mon"][3] = false
	tt.teachers["t2"] = teacher

	eval := Evaluate(tt, models.Lesson{ID: "l1", Cohorts: []string{"Y8"}, SubjectID: "maths", TeacherID: "t2"}, 0, 3, tt.grid, StrictSoft())
	assert.Equal(t, []models.ViolationKind{models.ViolationTeacherUnavailable}, eval.Kinds())
}

func TestEvaluateCellOccupiedAndUnknownReferences(t *testing.T) {
	tt := evaluatorFixture()
	require.NoError(t, tt.grid.Place(&models.Placement{ID: "p", LessonID: "x", SubjectID: "art", Cohorts: []string{"Y8"}, Day: 0, Period: 1}))

	eval := Evaluate(tt, models.Lesson{ID: "l1", Cohorts: []string{"Y7", "Y8", "Y13"}, SubjectID: "maths", TeacherID: "ghost"}, 0, 1, tt.grid, StrictSoft())
	assert.ElementsMatch(t, []models.ViolationKind{
		models.ViolationUnknownCohort,
		models.ViolationCellOccupied,
		models.ViolationUnknownTeacher,
	}, eval.Kinds())

	eval = Evaluate(tt, models.Lesson{ID: "l2", Cohorts: []string{"Y7"}, SubjectID: "nope"}, 0, 1, tt.grid, StrictSoft())
	assert.Equal(t, []models.ViolationKind{models.ViolationUnknownSubject}, eval.Kinds())

	eval = Evaluate(tt, models.Lesson{ID: "l3", Cohorts: []string{"Y7"}, SubjectID: "maths"}, 2, 1, tt.grid, StrictSoft())
	assert.Equal(t, []models.ViolationKind{models.ViolationOutOfRange}, eval.Kinds())
	eval = Evaluate(tt, models.Lesson{ID: "l3", Cohorts: []string{"Y7"}, SubjectID: "maths"}, 0, 5, tt.grid, StrictSoft())
	assert.Equal(t, []models.ViolationKind{models.ViolationOutOfRange}, eval.Kinds())
}

func TestEvaluatePenalty(t *testing.T) {
	tt := evaluatorFixture()
	require.NoError(t, tt.grid.Place(&models.Placement{ID: "a", LessonID: "x", SubjectID: "maths", TeacherID: "t2", Cohorts: []string{"Y7"}, Day: 0, Period: 1}))
	require.NoError(t, tt.grid.Place(&models.Placement{ID: "b", LessonID: "y", SubjectID: "art", TeacherID: "t1", Cohorts: []string{"Y7", "Y8"}, Day: 0, Period: 2}))
	require.NoError(t, tt.grid.Place(&models.Placement{ID: "c", LessonID: "z", SubjectID: "art", TeacherID: "t1", Cohorts: []string{"Y8"}, Day: 0, Period: 3}))

	lesson := models.Lesson{ID: "l1", Cohorts: []string{"Y7", "Y8"}, SubjectID: "maths", TeacherID: "t1"}
	tieBreak := 0.001 * float64(0*5+4)

	eval := Evaluate(tt, lesson, 0, 4, tt.grid, StrictSoft())
	require.True(t, eval.Legal())
	assert.InDelta(t, SameSubjectPenalty+2*TeacherRepeatPenalty+tieBreak, eval.Penalty, 1e-9)

	eval = Evaluate(tt, lesson, 0, 4, tt.grid, SoftConstraints{TeacherRepeatSameDay: true})
	assert.InDelta(t, 2*TeacherRepeatPenalty+tieBreak, eval.Penalty, 1e-9)

	eval = Evaluate(tt, lesson, 0, 4, tt.grid, RelaxedSoft())
	assert.InDelta(t, tieBreak, eval.Penalty, 1e-9)

	nextDay := Evaluate(tt, lesson, 1, 1, tt.grid, StrictSoft())
	assert.InDelta(t, 0.001*float64(1*5+1), nextDay.Penalty, 1e-9)
	assert.Less(t, Penalty(lesson, 1, 1, tt.grid, RelaxedSoft()), Penalty(lesson, 1, 2, tt.grid, RelaxedSoft()))
}
