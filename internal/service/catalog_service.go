package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableStore interface {
	View(fn func(*repository.TimetableState) error) error
	Update(fn func(*repository.TimetableState) error) error
}

// CatalogService manages subjects, teachers, rooms, the layout and lessons.
type CatalogService struct {
	store     timetableStore
	validator *validator.Validate
	logger    *zap.Logger
	newID     func() string
}

// NewCatalogService creates a catalog service.
func NewCatalogService(store timetableStore, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{store: store, validator: validate, logger: logger, newID: uuid.NewString}
}

func invalid(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// --- Subjects ---

// ListSubjects returns every subject.
func (s *CatalogService) ListSubjects() ([]models.Subject, error) {
	var subjects []models.Subject
	err := s.store.View(func(st *repository.TimetableState) error {
		subjects = st.Subjects()
		return nil
	})
	return subjects, err
}

// CreateSubject adds a subject with a unique name.
func (s *CatalogService) CreateSubject(req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid subject payload")
	}
	name := strings.TrimSpace(req.Name)
	category := models.SubjectCategory(req.Category)
	if category == "" {
		category = models.SubjectCategoryStandard
	}

	var subject models.Subject
	err := s.store.Update(func(st *repository.TimetableState) error {
		existing := st.Subjects()
		for _, other := range existing {
			if strings.EqualFold(other.Name, name) {
				return appErrors.Clone(appErrors.ErrConflict, "subject name already exists")
			}
		}
		if unknown := unknownCohorts(st.Layout(), req.MergeableCohorts); len(unknown) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "unknown mergeable cohorts: "+strings.Join(unknown, ", "))
		}
		color := req.Color
		if color == "" {
			color = subjectColor(len(existing))
		}
		subject = models.Subject{
			ID:               s.newID(),
			Name:             name,
			Color:            color,
			DefaultCount:     req.DefaultCount,
			MergeableCohorts: append([]string(nil), req.MergeableCohorts...),
			Category:         category,
		}
		st.PutSubject(subject)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// SetDefaultCount updates the weekly count used by lesson generation.
func (s *CatalogService) SetDefaultCount(id string, req dto.UpdateDefaultCountRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid default count")
	}
	var subject models.Subject
	err := s.store.Update(func(st *repository.TimetableState) error {
		found, ok := st.Subject(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		found.DefaultCount = req.DefaultCount
		st.PutSubject(found)
		subject = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// DeleteSubject removes a subject together with its lessons and their placements.
func (s *CatalogService) DeleteSubject(id string) error {
	return s.store.Update(func(st *repository.TimetableState) error {
		removed, ok := st.DeleteSubject(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		for _, teacher := range st.Teachers() {
			if kept := without(teacher.SubjectIDs, id); len(kept) != len(teacher.SubjectIDs) {
				teacher.SubjectIDs = kept
				st.PutTeacher(teacher)
			}
		}
		s.logger.Info("subject deleted", zap.String("subject_id", id), zap.Strings("lessons_removed", removed))
		return nil
	})
}

// --- Teachers ---

// ListTeachers returns every teacher.
func (s *CatalogService) ListTeachers() ([]models.Teacher, error) {
	var teachers []models.Teacher
	err := s.store.View(func(st *repository.TimetableState) error {
		teachers = st.Teachers()
		return nil
	})
	return teachers, err
}

// CreateTeacher adds a teacher, generating a code when none is given. Days missing from the
// availability map are fully available.
func (s *CatalogService) CreateTeacher(req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	var teacher models.Teacher
	err := s.store.Update(func(st *repository.TimetableState) error {
		built, err := s.buildTeacher(st, "", req)
		if err != nil {
			return err
		}
		built.ID = s.newID()
		st.PutTeacher(built)
		teacher = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// UpdateTeacher replaces a teacher's name, code, availability and subjects.
func (s *CatalogService) UpdateTeacher(id string, req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid teacher payload")
	}
	var teacher models.Teacher
	err := s.store.Update(func(st *repository.TimetableState) error {
		current, ok := st.Teacher(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		if req.Code == "" {
			req.Code = current.Code
		}
		built, err := s.buildTeacher(st, id, req)
		if err != nil {
			return err
		}
		built.ID = id
		st.PutTeacher(built)
		teacher = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (s *CatalogService) buildTeacher(st *repository.TimetableState, selfID string, req dto.TeacherRequest) (models.Teacher, error) {
	layout := st.Layout()
	var codes []string
	for _, other := range st.Teachers() {
		if other.ID != selfID {
			codes = append(codes, other.Code)
		}
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		code = GenerateTeacherCode(req.Name, codes)
	} else {
		for _, taken := range codes {
			if strings.EqualFold(taken, code) {
				return models.Teacher{}, appErrors.Clone(appErrors.ErrConflict, "teacher code already in use")
			}
		}
	}

	for day := range req.Availability {
		if layout.DayIndex(day) < 0 {
			return models.Teacher{}, appErrors.Clone(appErrors.ErrValidation, "unknown day in availability: "+day)
		}
	}
	for _, subjectID := range req.SubjectIDs {
		if _, ok := st.Subject(subjectID); !ok {
			return models.Teacher{}, appErrors.Clone(appErrors.ErrValidation, "unknown subject: "+subjectID)
		}
	}

	return models.Teacher{
		Name:         strings.TrimSpace(req.Name),
		Code:         code,
		Availability: models.NormalizeAvailability(req.Availability, layout.Days, layout.Slots()),
		SubjectIDs:   append([]string(nil), req.SubjectIDs...),
	}, nil
}

// DeleteTeacher removes a teacher together with their lessons and placements.
func (s *CatalogService) DeleteTeacher(id string) error {
	return s.store.Update(func(st *repository.TimetableState) error {
		removed, ok := st.DeleteTeacher(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		s.logger.Info("teacher deleted", zap.String("teacher_id", id), zap.Strings("lessons_removed", removed))
		return nil
	})
}

// --- Rooms ---

// ListRooms returns every room.
func (s *CatalogService) ListRooms() ([]models.Room, error) {
	var rooms []models.Room
	err := s.store.View(func(st *repository.TimetableState) error {
		rooms = st.Rooms()
		return nil
	})
	return rooms, err
}

// CreateRoom adds a room with a unique name.
func (s *CatalogService) CreateRoom(req dto.CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid room payload")
	}
	name := strings.TrimSpace(req.Name)
	var room models.Room
	err := s.store.Update(func(st *repository.TimetableState) error {
		for _, other := range st.Rooms() {
			if strings.EqualFold(other.Name, name) {
				return appErrors.Clone(appErrors.ErrConflict, "room name already exists")
			}
		}
		room = models.Room{ID: s.newID(), Name: name}
		st.PutRoom(room)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteRoom removes a room unless a lesson still uses it.
func (s *CatalogService) DeleteRoom(id string) error {
	return s.store.Update(func(st *repository.TimetableState) error {
		found, err := st.DeleteRoom(id)
		if !found {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		if errors.Is(err, repository.ErrRoomInUse) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "room is used by lessons")
		}
		return err
	})
}

// --- Layout ---

// Layout returns the current layout.
func (s *CatalogService) Layout() (models.Layout, error) {
	var layout models.Layout
	err := s.store.View(func(st *repository.TimetableState) error {
		layout = st.Layout()
		return nil
	})
	return layout, err
}

// UpdateLayout reshapes the timetable to a new set of days, periods and cohorts.
func (s *CatalogService) UpdateLayout(req dto.LayoutRequest) (*dto.LayoutResponse, error) {
	req.Days, req.Cohorts = trimAll(req.Days), trimAll(req.Cohorts)
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid layout payload")
	}
	layout := models.Layout{Days: req.Days, Periods: req.Periods, Cohorts: req.Cohorts}
	if err := layout.Check(); err != nil {
		return nil, invalid(err, "invalid layout")
	}
	var change repository.LayoutChange
	err := s.store.Update(func(st *repository.TimetableState) error {
		var err error
		change, err = st.SetLayout(layout)
		if err != nil {
			return invalid(err, "invalid layout")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("layout updated",
		zap.Strings("days", layout.Days),
		zap.Int("periods", layout.Periods),
		zap.Strings("cohorts", layout.Cohorts),
		zap.Int("placements_dropped", len(change.DroppedPlacements)),
	)
	return &dto.LayoutResponse{
		Layout:            layout,
		DroppedPlacements: change.DroppedPlacements,
		DroppedLessons:    change.DroppedLessons,
		TrimmedLessons:    change.TrimmedLessons,
	}, nil
}

// --- Lessons ---

// ListLessons returns every lesson.
func (s *CatalogService) ListLessons() ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := s.store.View(func(st *repository.TimetableState) error {
		lessons = st.Lessons()
		return nil
	})
	return lessons, err
}

// CreateLessons adds either one merged lesson or one lesson per cohort. Requests duplicating
// an existing lesson are skipped; if everything is a duplicate the call is a conflict.
func (s *CatalogService) CreateLessons(req dto.CreateLessonRequest) (*dto.LessonsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid lesson payload")
	}
	count := models.ClampCount(req.Count)
	if req.Merged && len(req.Cohorts) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a merged lesson needs at least two cohorts")
	}

	resp := &dto.LessonsResponse{Created: []models.Lesson{}}
	err := s.store.Update(func(st *repository.TimetableState) error {
		subject, ok := st.Subject(req.SubjectID)
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
		if req.TeacherID != "" {
			if _, ok := st.Teacher(req.TeacherID); !ok {
				return appErrors.Clone(appErrors.ErrValidation, "unknown teacher")
			}
		}
		if req.RoomID != "" {
			if _, ok := st.Room(req.RoomID); !ok {
				return appErrors.Clone(appErrors.ErrValidation, "unknown room")
			}
		}
		if unknown := unknownCohorts(st.Layout(), req.Cohorts); len(unknown) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "unknown cohorts: "+strings.Join(unknown, ", "))
		}
		if req.Merged && !subject.AllowsMerge(req.Cohorts) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s cannot merge cohorts %s", subject.Name, strings.Join(req.Cohorts, ", ")))
		}

		var candidates []models.Lesson
		if req.Merged {
			candidates = append(candidates, models.Lesson{Cohorts: append([]string(nil), req.Cohorts...)})
		} else {
			for _, cohort := range req.Cohorts {
				candidates = append(candidates, models.Lesson{Cohorts: []string{cohort}})
			}
		}

		existing := st.Lessons()
		for _, lesson := range candidates {
			lesson.SubjectID = req.SubjectID
			lesson.TeacherID = req.TeacherID
			lesson.RoomID = req.RoomID
			lesson.Count = count
			if containsLesson(existing, lesson) {
				resp.Skipped++
				continue
			}
			lesson.ID = s.newID()
			st.PutLesson(lesson)
			existing = append(existing, lesson)
			resp.Created = append(resp.Created, lesson)
		}
		if len(resp.Created) == 0 {
			return appErrors.Clone(appErrors.ErrConflict, "lesson already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GenerateLessons creates a single-cohort lesson per subject for each cohort, using the
// subject's default count. Cohort/subject pairs that already have a lesson and subjects
// with a zero default count are skipped.
func (s *CatalogService) GenerateLessons(req dto.GenerateLessonsRequest) (*dto.LessonsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, invalid(err, "invalid generation payload")
	}
	resp := &dto.LessonsResponse{Created: []models.Lesson{}}
	err := s.store.Update(func(st *repository.TimetableState) error {
		if unknown := unknownCohorts(st.Layout(), req.Cohorts); len(unknown) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "unknown cohorts: "+strings.Join(unknown, ", "))
		}
		subjects := st.Subjects()
		if len(req.SubjectIDs) > 0 {
			subjects = subjects[:0:0]
			for _, id := range req.SubjectIDs {
				subject, ok := st.Subject(id)
				if !ok {
					return appErrors.Clone(appErrors.ErrValidation, "unknown subject: "+id)
				}
				subjects = append(subjects, subject)
			}
		}

		existing := st.Lessons()
		for _, cohort := range req.Cohorts {
			for _, subject := range subjects {
				if subject.DefaultCount <= 0 || hasCohortSubject(existing, cohort, subject.ID) {
					resp.Skipped++
					continue
				}
				lesson := models.Lesson{
					ID:        s.newID(),
					Cohorts:   []string{cohort},
					SubjectID: subject.ID,
					Count:     models.ClampCount(subject.DefaultCount),
				}
				st.PutLesson(lesson)
				existing = append(existing, lesson)
				resp.Created = append(resp.Created, lesson)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteLesson removes a lesson and its placements.
func (s *CatalogService) DeleteLesson(id string) error {
	return s.store.Update(func(st *repository.TimetableState) error {
		if !st.DeleteLesson(id) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil
	})
}

// --- Seeding ---

// SeedDefaults loads the default subjects and rooms into an empty catalog. It reports whether
// anything was added.
func (s *CatalogService) SeedDefaults() (bool, error) {
	seeded := false
	err := s.store.Update(func(st *repository.TimetableState) error {
		if len(st.Subjects()) > 0 || len(st.Rooms()) > 0 {
			return nil
		}
		for i, def := range defaultSubjects {
			category := models.SubjectCategoryStandard
			if def.name == FormTimeSubject {
				category = models.SubjectCategoryForm
			}
			st.PutSubject(models.Subject{
				ID:           s.newID(),
				Name:         def.name,
				Color:        subjectColor(i),
				DefaultCount: def.count,
				Category:     category,
			})
		}
		for _, name := range defaultRoomNames() {
			st.PutRoom(models.Room{ID: s.newID(), Name: name})
		}
		seeded = true
		return nil
	})
	if seeded {
		s.logger.Info("default catalog seeded", zap.Int("subjects", len(defaultSubjects)), zap.Int("rooms", len(defaultRoomNames())))
	}
	return seeded, err
}

func unknownCohorts(layout models.Layout, cohorts []string) []string {
	var unknown []string
	for _, cohort := range cohorts {
		if layout.CohortIndex(cohort) < 0 {
			unknown = append(unknown, cohort)
		}
	}
	return unknown
}

func containsLesson(lessons []models.Lesson, candidate models.Lesson) bool {
	for _, lesson := range lessons {
		if lesson.SameAs(candidate) {
			return true
		}
	}
	return false
}

func hasCohortSubject(lessons []models.Lesson, cohort, subjectID string) bool {
	for _, lesson := range lessons {
		if lesson.SubjectID == subjectID && len(lesson.Cohorts) == 1 && lesson.Cohorts[0] == cohort {
			return true
		}
	}
	return false
}

func without(values []string, drop string) []string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != drop {
			kept = append(kept, v)
		}
	}
	return kept
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
