package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// CreateSubjectRequest adds a subject to the catalog.
type CreateSubjectRequest struct {
	Name             string   `json:"name" validate:"required,max=120"`
	Color            string   `json:"color" validate:"omitempty,max=64"`
	DefaultCount     int      `json:"defaultCount" validate:"min=0,max=50"`
	MergeableCohorts []string `json:"mergeableCohorts" validate:"omitempty,unique,dive,required"`
	Category         string   `json:"category" validate:"omitempty,oneof=FORM STANDARD"`
}

// UpdateDefaultCountRequest changes how many weekly sessions generated lessons get.
type UpdateDefaultCountRequest struct {
	DefaultCount int `json:"defaultCount" validate:"min=0,max=50"`
}

// TeacherRequest creates or replaces a teacher. Empty code asks for a generated one.
type TeacherRequest struct {
	Name         string            `json:"name" validate:"required,max=120"`
	Code         string            `json:"code" validate:"omitempty,max=12"`
	Availability map[string][]bool `json:"availability"`
	SubjectIDs   []string          `json:"subjectIds" validate:"omitempty,unique,dive,required"`
}

// CreateRoomRequest adds a room.
type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

// LayoutRequest replaces the grid layout.
type LayoutRequest struct {
	Days    []string `json:"days" validate:"required,min=1,max=7,unique,dive,required"`
	Periods int      `json:"periods" validate:"required,min=1,max=12"`
	Cohorts []string `json:"cohorts" validate:"required,min=1,unique,dive,required"`
}

// LayoutResponse reports the new layout and what the reshape discarded.
type LayoutResponse struct {
	Layout            models.Layout `json:"layout"`
	DroppedPlacements []string      `json:"droppedPlacements"`
	DroppedLessons    []string      `json:"droppedLessons"`
	TrimmedLessons    []string      `json:"trimmedLessons"`
}

// CreateLessonRequest adds lessons. With Merged set the cohorts share one joint lesson,
// otherwise one lesson is created per cohort.
type CreateLessonRequest struct {
	Cohorts   []string `json:"cohorts" validate:"required,min=1,unique,dive,required"`
	Merged    bool     `json:"merged"`
	SubjectID string   `json:"subjectId" validate:"required"`
	TeacherID string   `json:"teacherId"`
	RoomID    string   `json:"roomId"`
	Count     int      `json:"count"`
}

// GenerateLessonsRequest creates one lesson per subject for each cohort listed.
type GenerateLessonsRequest struct {
	Cohorts    []string `json:"cohorts" validate:"required,min=1,unique,dive,required"`
	SubjectIDs []string `json:"subjectIds" validate:"omitempty,unique,dive,required"`
}

// LessonsResponse lists lessons created by a request.
type LessonsResponse struct {
	Created []models.Lesson `json:"created"`
	Skipped int             `json:"skipped"`
}
