package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func newCatalogFixture(t *testing.T) (*CatalogService, *repository.TimetableStore) {
	t.Helper()
	store := repository.NewTimetableStore(models.Layout{
		Days:    []string{"Mon", "Tue", "Wed"},
		Periods: 4,
		Cohorts: []string{"Y7", "Y8", "Y9"},
	})
	svc := NewCatalogService(store, nil, nil)
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc, store
}

func TestSeedDefaultsOnlyOnEmptyCatalog(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	seeded, err := svc.SeedDefaults()
	require.NoError(t, err)
	assert.True(t, seeded)

	subjects, err := svc.ListSubjects()
	require.NoError(t, err)
	require.Len(t, subjects, len(defaultSubjects))
	assert.Equal(t, FormTimeSubject, subjects[0].Name)
	assert.True(t, subjects[0].IsForm())
	assert.False(t, subjects[1].IsForm())

	rooms, err := svc.ListRooms()
	require.NoError(t, err)
	assert.Len(t, rooms, len(defaultRoomNames()))

	seeded, err = svc.SeedDefaults()
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestCreateSubjectRejectsDuplicateName(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	subject, err := svc.CreateSubject(dto.CreateSubjectRequest{Name: "Latin", DefaultCount: 2})
	require.NoError(t, err)
	assert.Equal(t, models.SubjectCategoryStandard, subject.Category)
	assert.NotEmpty(t, subject.Color)

	_, err = svc.CreateSubject(dto.CreateSubjectRequest{Name: "latin"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.CreateSubject(dto.CreateSubjectRequest{Name: "Greek", MergeableCohorts: []string{"Y12"}})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.CreateSubject(dto.CreateSubjectRequest{Name: ""})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCreateTeacherGeneratesUniqueCodes(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	first, err := svc.CreateTeacher(dto.TeacherRequest{Name: "Ada Lovelace"})
	require.NoError(t, err)
	second, err := svc.CreateTeacher(dto.TeacherRequest{Name: "Ada Lovelace"})
	require.NoError(t, err)

	assert.NotEmpty(t, first.Code)
	assert.NotEqual(t, first.Code, second.Code)
	assert.Len(t, first.Availability, 3)
	assert.True(t, first.AvailableAt("Wed", 4))

	_, err = svc.CreateTeacher(dto.TeacherRequest{Name: "Alan Turing", Code: first.Code})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.CreateTeacher(dto.TeacherRequest{Name: "Grace Hopper", Availability: map[string][]bool{"Sun": {true}}})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUpdateTeacherKeepsCodeAndNormalisesAvailability(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	created, err := svc.CreateTeacher(dto.TeacherRequest{Name: "Ada Lovelace", Code: "ALE"})
	require.NoError(t, err)

	updated, err := svc.UpdateTeacher(created.ID, dto.TeacherRequest{
		Name:         "Ada King",
		Availability: map[string][]bool{"Mon": {true, false}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ALE", updated.Code)
	assert.False(t, updated.AvailableAt("Mon", 1))
	assert.True(t, updated.AvailableAt("Mon", 4))
	assert.Len(t, updated.Availability["Mon"], 5)

	_, err = svc.UpdateTeacher("missing", dto.TeacherRequest{Name: "Nobody"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDeleteRoomInUseIsConflict(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	subject, err := svc.CreateSubject(dto.CreateSubjectRequest{Name: "Science"})
	require.NoError(t, err)
	room, err := svc.CreateRoom(dto.CreateRoomRequest{Name: "Lab 1"})
	require.NoError(t, err)
	_, err = svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y7"}, SubjectID: subject.ID, RoomID: room.ID, Count: 2})
	require.NoError(t, err)

	err = svc.DeleteRoom(room.ID)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	err = svc.DeleteRoom("missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCreateLessonsPerCohortSkipsDuplicates(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	subject, err := svc.CreateSubject(dto.CreateSubjectRequest{Name: "History"})
	require.NoError(t, err)

	resp, err := svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y7", "Y8"}, SubjectID: subject.ID, Count: 99})
	require.NoError(t, err)
	require.Len(t, resp.Created, 2)
	assert.Equal(t, models.MaxLessonCount, resp.Created[0].Count)

	resp, err = svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y8", "Y9"}, SubjectID: subject.ID, Count: 99})
	require.NoError(t, err)
	assert.Len(t, resp.Created, 1)
	assert.Equal(t, 1, resp.Skipped)

	_, err = svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y9"}, SubjectID: subject.ID, Count: 99})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	lessons, err := svc.ListLessons()
	require.NoError(t, err)
	assert.Len(t, lessons, 3)
}

func TestCreateMergedLessonHonoursMergeRules(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	restricted, err := svc.CreateSubject(dto.CreateSubjectRequest{Name: "PE", MergeableCohorts: []string{"Y7", "Y8"}})
	require.NoError(t, err)

	_, err = svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y7"}, Merged: true, SubjectID: restricted.ID})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y7", "Y9"}, Merged: true, SubjectID: restricted.ID})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	resp, err := svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y7", "Y8"}, Merged: true, SubjectID: restricted.ID, Count: 0})
	require.NoError(t, err)
	require.Len(t, resp.Created, 1)
	assert.True(t, resp.Created[0].Merged())
	assert.Equal(t, models.MinLessonCount, resp.Created[0].Count)

	_, err = svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y8", "Y7"}, Merged: true, SubjectID: restricted.ID})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestGenerateLessonsUsesDefaultCounts(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	_, err := svc.SeedDefaults()
	require.NoError(t, err)

	resp, err := svc.GenerateLessons(dto.GenerateLessonsRequest{Cohorts: []string{"Y7"}})
	require.NoError(t, err)
	assert.Len(t, resp.Created, len(defaultSubjects)-1)
	assert.Equal(t, 1, resp.Skipped)
	for _, lesson := range resp.Created {
		assert.Equal(t, []string{"Y7"}, lesson.Cohorts)
		assert.GreaterOrEqual(t, lesson.Count, 1)
	}

	again, err := svc.GenerateLessons(dto.GenerateLessonsRequest{Cohorts: []string{"Y7"}})
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, len(defaultSubjects), again.Skipped)
}

func TestDeleteSubjectCascades(t *testing.T) {
	svc, store := newCatalogFixture(t)
	subject, err := svc.CreateSubject(dto.CreateSubjectRequest{Name: "Drama"})
	require.NoError(t, err)
	teacher, err := svc.CreateTeacher(dto.TeacherRequest{Name: "Judi Dench", SubjectIDs: []string{subject.ID}})
	require.NoError(t, err)
	resp, err := svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y7"}, SubjectID: subject.ID, TeacherID: teacher.ID, Count: 1})
	require.NoError(t, err)

	require.NoError(t, store.Update(func(st *repository.TimetableState) error {
		return st.Grid().Place(models.NewPlacement("p1", resp.Created[0], 0, 1))
	}))

	require.NoError(t, svc.DeleteSubject(subject.ID))

	lessons, err := svc.ListLessons()
	require.NoError(t, err)
	assert.Empty(t, lessons)
	teachers, err := svc.ListTeachers()
	require.NoError(t, err)
	assert.Empty(t, teachers[0].SubjectIDs)
	require.NoError(t, store.View(func(st *repository.TimetableState) error {
		assert.Zero(t, st.Grid().Len())
		return nil
	}))

	assert.True(t, appErrors.Is(svc.DeleteSubject(subject.ID), appErrors.ErrNotFound))
}

func TestUpdateLayoutReportsDroppedWork(t *testing.T) {
	svc, store := newCatalogFixture(t)
	subject, err := svc.CreateSubject(dto.CreateSubjectRequest{Name: "Music"})
	require.NoError(t, err)
	resp, err := svc.CreateLessons(dto.CreateLessonRequest{Cohorts: []string{"Y9"}, SubjectID: subject.ID, Count: 1})
	require.NoError(t, err)
	require.NoError(t, store.Update(func(st *repository.TimetableState) error {
		return st.Grid().Place(models.NewPlacement("p1", resp.Created[0], 2, 3))
	}))

	out, err := svc.UpdateLayout(dto.LayoutRequest{Days: []string{"Mon", "Tue"}, Periods: 4, Cohorts: []string{"Y7", "Y8"}})
	require.NoError(t, err)
	assert.Equal(t, []string{resp.Created[0].ID}, out.DroppedLessons)
	assert.Equal(t, []string{"p1"}, out.DroppedPlacements)

	layout, err := svc.Layout()
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Tue"}, layout.Days)

	_, err = svc.UpdateLayout(dto.LayoutRequest{Days: []string{"Mon", "Mon"}, Periods: 4, Cohorts: []string{"Y7"}})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestUpdateLayoutRejectsLabelsEqualAfterTrimming(t *testing.T) {
	svc, _ := newCatalogFixture(t)
	before, err := svc.Layout()
	require.NoError(t, err)

	cases := []dto.LayoutRequest{
		{Days: []string{"Mon", "Mon "}, Periods: 3, Cohorts: []string{"Y7"}},
		{Days: []string{"Mon"}, Periods: 3, Cohorts: []string{"Y7", " Y7"}},
		{Days: []string{"Mon"}, Periods: 3, Cohorts: []string{"Y7", "  "}},
	}
	for _, req := range cases {
		_, err := svc.UpdateLayout(req)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "%v", req)
	}

	after, err := svc.Layout()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	out, err := svc.UpdateLayout(dto.LayoutRequest{Days: []string{" Mon", "Tue "}, Periods: 3, Cohorts: []string{" Y7 "}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Tue"}, out.Layout.Days)
	assert.Equal(t, []string{"Y7"}, out.Layout.Cohorts)
}
