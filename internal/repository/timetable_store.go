package repository

import (
	"errors"
	"fmt"
	"sync"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

var (
	// ErrRoomInUse is returned when deleting a room that lessons still reference.
	ErrRoomInUse = errors.New("room referenced by lessons")
	// ErrInvalidLayout is returned for layouts that fail models.Layout.Check.
	ErrInvalidLayout = errors.New("invalid layout")
	// ErrStaleRevision is returned by UpdateAt when another update landed first.
	ErrStaleRevision = errors.New("timetable changed concurrently")
)

// TimetableState holds the catalog, lessons and grid. It is only reachable through
// TimetableStore.View and TimetableStore.Update, which serialise access to it.
type TimetableState struct {
	layout   models.Layout
	subjects []models.Subject
	teachers []models.Teacher
	rooms    []models.Room
	lessons  []models.Lesson
	grid     *models.Grid
}

// NewTimetableState creates an empty state for the layout.
func NewTimetableState(layout models.Layout) *TimetableState {
	return &TimetableState{layout: layout.Clone(), grid: models.NewGrid(layout)}
}

// Layout returns the current layout.
func (s *TimetableState) Layout() models.Layout {
	return s.layout.Clone()
}

// Grid returns the live grid.
func (s *TimetableState) Grid() *models.Grid {
	return s.grid
}

// ReplaceGrid swaps in a grid built for the current layout, e.g. an auto-schedule result.
func (s *TimetableState) ReplaceGrid(grid *models.Grid) {
	if grid == nil {
		s.grid = models.NewGrid(s.layout)
		return
	}
	s.grid = grid
}

// Subject looks up a subject by id.
func (s *TimetableState) Subject(id string) (models.Subject, bool) {
	for _, subject := range s.subjects {
		if subject.ID == id {
			return subject, true
		}
	}
	return models.Subject{}, false
}

// Subjects returns the subjects in insertion order.
func (s *TimetableState) Subjects() []models.Subject {
	return append([]models.Subject(nil), s.subjects...)
}

// PutSubject inserts or replaces a subject.
func (s *TimetableState) PutSubject(subject models.Subject) {
	for i := range s.subjects {
		if s.subjects[i].ID == subject.ID {
			s.subjects[i] = subject
			return
		}
	}
	s.subjects = append(s.subjects, subject)
}

// DeleteSubject removes a subject with its lessons and their placements.
func (s *TimetableState) DeleteSubject(id string) ([]string, bool) {
	idx := -1
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	s.subjects = append(s.subjects[:idx], s.subjects[idx+1:]...)
	removed, _ := s.deleteLessonsWhere(func(l models.Lesson) bool { return l.SubjectID == id })
	return removed, true
}

// Teacher looks up a teacher by id.
func (s *TimetableState) Teacher(id string) (models.Teacher, bool) {
	for _, teacher := range s.teachers {
		if teacher.ID == id {
			return teacher, true
		}
	}
	return models.Teacher{}, false
}

// Teachers returns the teachers in insertion order.
func (s *TimetableState) Teachers() []models.Teacher {
	return append([]models.Teacher(nil), s.teachers...)
}

// PutTeacher inserts or replaces a teacher.
func (s *TimetableState) PutTeacher(teacher models.Teacher) {
	for i := range s.teachers {
		if s.teachers[i].ID == teacher.ID {
			s.teachers[i] = teacher
			return
		}
	}
	s.teachers = append(s.teachers, teacher)
}

// DeleteTeacher removes a teacher with their lessons and placements.
func (s *TimetableState) DeleteTeacher(id string) ([]string, bool) {
	idx := -1
	for i := range s.teachers {
		if s.teachers[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	s.teachers = append(s.teachers[:idx], s.teachers[idx+1:]...)
	removed, _ := s.deleteLessonsWhere(func(l models.Lesson) bool { return l.TeacherID == id })
	return removed, true
}

// Room looks up a room by id.
func (s *TimetableState) Room(id string) (models.Room, bool) {
	for _, room := range s.rooms {
		if room.ID == id {
			return room, true
		}
	}
	return models.Room{}, false
}

// Rooms returns the rooms in insertion order.
func (s *TimetableState) Rooms() []models.Room {
	return append([]models.Room(nil), s.rooms...)
}

// PutRoom inserts or replaces a room.
func (s *TimetableState) PutRoom(room models.Room) {
	for i := range s.rooms {
		if s.rooms[i].ID == room.ID {
			s.rooms[i] = room
			return
		}
	}
	s.rooms = append(s.rooms, room)
}

// DeleteRoom removes a room unless a lesson still uses it.
func (s *TimetableState) DeleteRoom(id string) (bool, error) {
	idx := -1
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	for _, lesson := range s.lessons {
		if lesson.RoomID == id {
			return true, fmt.Errorf("%w: %s", ErrRoomInUse, lesson.ID)
		}
	}
	s.rooms = append(s.rooms[:idx], s.rooms[idx+1:]...)
	return true, nil
}

// Lesson looks up a lesson by id.
func (s *TimetableState) Lesson(id string) (models.Lesson, bool) {
	for _, lesson := range s.lessons {
		if lesson.ID == id {
			return lesson, true
		}
	}
	return models.Lesson{}, false
}

// Lessons returns the lessons in insertion order.
func (s *TimetableState) Lessons() []models.Lesson {
	return append([]models.Lesson(nil), s.lessons...)
}

// PutLesson inserts or replaces a lesson.
func (s *TimetableState) PutLesson(lesson models.Lesson) {
	for i := range s.lessons {
		if s.lessons[i].ID == lesson.ID {
			s.lessons[i] = lesson
			return
		}
	}
	s.lessons = append(s.lessons, lesson)
}

// DeleteLesson removes a lesson and its placements.
func (s *TimetableState) DeleteLesson(id string) bool {
	removed, _ := s.deleteLessonsWhere(func(l models.Lesson) bool { return l.ID == id })
	return len(removed) > 0
}

// deleteLessonsWhere removes matching lessons and their placements, returning the ids of both.
func (s *TimetableState) deleteLessonsWhere(match func(models.Lesson) bool) ([]string, []string) {
	var removed []string
	kept := s.lessons[:0]
	for _, lesson := range s.lessons {
		if match(lesson) {
			removed = append(removed, lesson.ID)
			continue
		}
		kept = append(kept, lesson)
	}
	s.lessons = kept
	if len(removed) == 0 {
		return nil, nil
	}
	gone := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		gone[id] = struct{}{}
	}
	var placements []string
	for _, p := range s.grid.RemoveWhere(func(p *models.Placement) bool {
		_, ok := gone[p.LessonID]
		return ok
	}) {
		placements = append(placements, p.ID)
	}
	return removed, placements
}

// LayoutChange reports what a layout update discarded.
type LayoutChange struct {
	DroppedPlacements []string
	DroppedLessons    []string
	TrimmedLessons    []string
}

// SetLayout applies a new layout. Lessons lose cohorts that no longer exist (and are dropped
// when none remain), teacher availability is resized, and the grid is reshaped.
func (s *TimetableState) SetLayout(layout models.Layout) (LayoutChange, error) {
	if err := layout.Check(); err != nil {
		return LayoutChange{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	var change LayoutChange

	present := make(map[string]struct{}, len(layout.Cohorts))
	for _, cohort := range layout.Cohorts {
		present[cohort] = struct{}{}
	}
	for i := range s.lessons {
		kept := make([]string, 0, len(s.lessons[i].Cohorts))
		for _, cohort := range s.lessons[i].Cohorts {
			if _, ok := present[cohort]; ok {
				kept = append(kept, cohort)
			}
		}
		if len(kept) != len(s.lessons[i].Cohorts) && len(kept) > 0 {
			s.lessons[i].Cohorts = kept
			change.TrimmedLessons = append(change.TrimmedLessons, s.lessons[i].ID)
		}
	}
	change.DroppedLessons, change.DroppedPlacements = s.deleteLessonsWhere(func(l models.Lesson) bool {
		for _, cohort := range l.Cohorts {
			if _, ok := present[cohort]; ok {
				return false
			}
		}
		return true
	})

	for i := range s.teachers {
		s.teachers[i].Availability = models.NormalizeAvailability(s.teachers[i].Availability, layout.Days, layout.Slots())
	}

	s.layout = layout.Clone()
	for _, p := range s.grid.Reshape(layout) {
		change.DroppedPlacements = append(change.DroppedPlacements, p.ID)
	}
	return change, nil
}

// Export captures the state as a snapshot payload.
func (s *TimetableState) Export() models.SnapshotPayload {
	placements := s.grid.Placements()
	flat := make([]models.Placement, 0, len(placements))
	for _, p := range placements {
		flat = append(flat, *p.Clone())
	}
	return models.SnapshotPayload{
		Layout:     s.layout.Clone(),
		Subjects:   s.Subjects(),
		Teachers:   s.Teachers(),
		Rooms:      s.Rooms(),
		Lessons:    s.Lessons(),
		Cells:      s.grid.CellIDs(),
		Placements: flat,
	}
}

// Import replaces the whole state from a snapshot payload. Stored cells are normalised to
// the layout and placements that disagree with them, or whose lesson is gone, are dropped.
func (s *TimetableState) Import(payload models.SnapshotPayload) ([]string, error) {
	layout := payload.Layout
	if err := layout.Check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	lessons := make(map[string]struct{}, len(payload.Lessons))
	for _, lesson := range payload.Lessons {
		lessons[lesson.ID] = struct{}{}
	}
	var orphaned []string
	placements := make([]models.Placement, 0, len(payload.Placements))
	for _, p := range payload.Placements {
		if _, ok := lessons[p.LessonID]; !ok {
			orphaned = append(orphaned, p.ID)
			continue
		}
		placements = append(placements, p)
	}

	grid, dropped := models.RestoreGrid(layout, payload.Cells, placements)

	teachers := append([]models.Teacher(nil), payload.Teachers...)
	for i := range teachers {
		teachers[i].Availability = models.NormalizeAvailability(teachers[i].Availability, layout.Days, layout.Slots())
	}

	s.layout = layout.Clone()
	s.subjects = append([]models.Subject(nil), payload.Subjects...)
	s.teachers = teachers
	s.rooms = append([]models.Room(nil), payload.Rooms...)
	s.lessons = append([]models.Lesson(nil), payload.Lessons...)
	s.grid = grid
	return append(orphaned, dropped...), nil
}

// TimetableStore owns the timetable state and hands it to one operation at a time.
type TimetableStore struct {
	mu       sync.RWMutex
	state    *TimetableState
	revision uint64
}

// NewTimetableStore creates a store with an empty state.
func NewTimetableStore(layout models.Layout) *TimetableStore {
	return &TimetableStore{state: NewTimetableState(layout)}
}

// View runs fn with shared read access. fn must not mutate the state.
func (s *TimetableStore) View(fn func(*TimetableState) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Update runs fn with exclusive access and bumps the revision when fn succeeds.
func (s *TimetableStore) Update(fn func(*TimetableState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.state); err != nil {
		return err
	}
	s.revision++
	return nil
}

// ViewRevision is View that also hands fn the revision it observed.
func (s *TimetableStore) ViewRevision(fn func(*TimetableState, uint64) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state, s.revision)
}

// UpdateAt is Update guarded by an expected revision, for work prepared outside the lock.
func (s *TimetableStore) UpdateAt(revision uint64, fn func(*TimetableState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision != revision {
		return fmt.Errorf("%w: expected revision %d, at %d", ErrStaleRevision, revision, s.revision)
	}
	if err := fn(s.state); err != nil {
		return err
	}
	s.revision++
	return nil
}

// Revision returns a counter that changes on every successful Update.
func (s *TimetableStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
