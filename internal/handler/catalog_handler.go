package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type catalogService interface {
	ListSubjects() ([]models.Subject, error)
	CreateSubject(req dto.CreateSubjectRequest) (*models.Subject, error)
	SetDefaultCount(id string, req dto.UpdateDefaultCountRequest) (*models.Subject, error)
	DeleteSubject(id string) error

	ListTeachers() ([]models.Teacher, error)
	CreateTeacher(req dto.TeacherRequest) (*models.Teacher, error)
	UpdateTeacher(id string, req dto.TeacherRequest) (*models.Teacher, error)
	DeleteTeacher(id string) error

	ListRooms() ([]models.Room, error)
	CreateRoom(req dto.CreateRoomRequest) (*models.Room, error)
	DeleteRoom(id string) error

	Layout() (models.Layout, error)
	UpdateLayout(req dto.LayoutRequest) (*dto.LayoutResponse, error)

	ListLessons() ([]models.Lesson, error)
	CreateLessons(req dto.CreateLessonRequest) (*dto.LessonsResponse, error)
	GenerateLessons(req dto.GenerateLessonsRequest) (*dto.LessonsResponse, error)
	DeleteLesson(id string) error
}

// CatalogHandler exposes subjects, teachers, rooms, the layout and lessons.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

func respondList[T any](c *gin.Context, items []T, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

func respondDeleted(c *gin.Context, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects()
	respondList(c, subjects, err)
}

// CreateSubject godoc
// @Summary Create subject
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	subject, err := h.service.CreateSubject(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// SetDefaultCount godoc
// @Summary Change a subject's default weekly count
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body dto.UpdateDefaultCountRequest true "Default count"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/default-count [patch]
func (h *CatalogHandler) SetDefaultCount(c *gin.Context) {
	var req dto.UpdateDefaultCountRequest
	if !bindJSON(c, &req, "invalid default count payload") {
		return
	}
	subject, err := h.service.SetDefaultCount(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject)
}

// DeleteSubject godoc
// @Summary Delete subject with its lessons and placements
// @Tags Catalog
// @Param id path string true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	respondDeleted(c, h.service.DeleteSubject(c.Param("id")))
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *CatalogHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.service.ListTeachers()
	respondList(c, teachers, err)
}

// CreateTeacher godoc
// @Summary Create teacher
// @Description The short code is generated from the name when omitted.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.TeacherRequest true "Teacher"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *CatalogHandler) CreateTeacher(c *gin.Context) {
	var req dto.TeacherRequest
	if !bindJSON(c, &req, "invalid teacher payload") {
		return
	}
	teacher, err := h.service.CreateTeacher(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// UpdateTeacher godoc
// @Summary Replace teacher details and availability
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.TeacherRequest true "Teacher"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *CatalogHandler) UpdateTeacher(c *gin.Context) {
	var req dto.TeacherRequest
	if !bindJSON(c, &req, "invalid teacher payload") {
		return
	}
	teacher, err := h.service.UpdateTeacher(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// DeleteTeacher godoc
// @Summary Delete teacher with their lessons and placements
// @Tags Catalog
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *CatalogHandler) DeleteTeacher(c *gin.Context) {
	respondDeleted(c, h.service.DeleteTeacher(c.Param("id")))
}

// ListRooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms()
	respondList(c, rooms, err)
}

// CreateRoom godoc
// @Summary Create room
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if !bindJSON(c, &req, "invalid room payload") {
		return
	}
	room, err := h.service.CreateRoom(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// DeleteRoom godoc
// @Summary Delete room
// @Description Fails with 409 while lessons still use the room.
// @Tags Catalog
// @Param id path string true "Room ID"
// @Success 204
// @Router /rooms/{id} [delete]
func (h *CatalogHandler) DeleteRoom(c *gin.Context) {
	respondDeleted(c, h.service.DeleteRoom(c.Param("id")))
}

// Layout godoc
// @Summary Current days, periods and cohorts
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /layout [get]
func (h *CatalogHandler) Layout(c *gin.Context) {
	layout, err := h.service.Layout()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, layout)
}

// UpdateLayout godoc
// @Summary Reshape the timetable
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.LayoutRequest true "Layout"
// @Success 200 {object} response.Envelope
// @Router /layout [put]
func (h *CatalogHandler) UpdateLayout(c *gin.Context) {
	var req dto.LayoutRequest
	if !bindJSON(c, &req, "invalid layout payload") {
		return
	}
	result, err := h.service.UpdateLayout(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListLessons godoc
// @Summary List lessons
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *CatalogHandler) ListLessons(c *gin.Context) {
	lessons, err := h.service.ListLessons()
	respondList(c, lessons, err)
}

// CreateLessons godoc
// @Summary Create lessons
// @Description One merged lesson when merged is set, otherwise one lesson per cohort.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Router /lessons [post]
func (h *CatalogHandler) CreateLessons(c *gin.Context) {
	var req dto.CreateLessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	result, err := h.service.CreateLessons(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GenerateLessons godoc
// @Summary Generate a lesson per subject for each cohort
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.GenerateLessonsRequest true "Cohorts"
// @Success 201 {object} response.Envelope
// @Router /lessons/generate [post]
func (h *CatalogHandler) GenerateLessons(c *gin.Context) {
	var req dto.GenerateLessonsRequest
	if !bindJSON(c, &req, "invalid generation payload") {
		return
	}
	result, err := h.service.GenerateLessons(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// DeleteLesson godoc
// @Summary Delete lesson and its placements
// @Tags Catalog
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *CatalogHandler) DeleteLesson(c *gin.Context) {
	respondDeleted(c, h.service.DeleteLesson(c.Param("id")))
}
