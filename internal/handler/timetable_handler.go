package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Grid() (*dto.GridResponse, error)
	Remaining() (*dto.RemainingResponse, error)
	Evaluate(req dto.EvaluateRequest) (*dto.EvaluateResponse, error)
	Place(req dto.PlacementRequest) (*models.Placement, error)
	Unplace(placementID string) (*models.Placement, error)
	Reset() error
	AutoSchedule(req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error)
	Export(ctx context.Context, format service.ExportFormat) (*service.ExportDocument, error)
	SaveSnapshot(ctx context.Context) (*dto.SnapshotResponse, error)
	RestoreLatest(ctx context.Context) (*dto.SnapshotResponse, error)
}

// TimetableHandler exposes the grid, manual edits and the auto-scheduler.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// Grid godoc
// @Summary Current timetable grid
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	grid, err := h.service.Grid()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("ETag", strconv.FormatUint(grid.Revision, 10))
	response.JSON(c, http.StatusOK, grid)
}

// Remaining godoc
// @Summary Unplaced sessions per lesson
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/remaining [get]
func (h *TimetableHandler) Remaining(c *gin.Context) {
	remaining, err := h.service.Remaining()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, remaining)
}

// Evaluate godoc
// @Summary Check a lesson against a cell without changing the grid
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.EvaluateRequest true "Candidate cell"
// @Success 200 {object} response.Envelope
// @Router /timetable/evaluate [post]
func (h *TimetableHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateRequest
	if !bindJSON(c, &req, "invalid evaluate payload") {
		return
	}
	result, err := h.service.Evaluate(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Place godoc
// @Summary Place one session of a lesson
// @Description Rejected placements return 409 with meta.detail describing the blocking conflict.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.PlacementRequest true "Placement"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/placements [post]
func (h *TimetableHandler) Place(c *gin.Context) {
	var req dto.PlacementRequest
	if !bindJSON(c, &req, "invalid placement payload") {
		return
	}
	placement, err := h.service.Place(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, placement)
}

// Unplace godoc
// @Summary Remove a placement from all of its cells
// @Tags Timetable
// @Param id path string true "Placement ID"
// @Success 204
// @Router /timetable/placements/{id} [delete]
func (h *TimetableHandler) Unplace(c *gin.Context) {
	if _, err := h.service.Unplace(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reset godoc
// @Summary Clear every placement
// @Tags Timetable
// @Success 204
// @Router /timetable/placements [delete]
func (h *TimetableHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AutoSchedule godoc
// @Summary Re-solve the whole timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.AutoScheduleRequest false "Optional seed"
// @Success 200 {object} response.Envelope
// @Router /timetable/auto-schedule [post]
func (h *TimetableHandler) AutoSchedule(c *gin.Context) {
	var req dto.AutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid auto-schedule payload"))
		return
	}
	result, err := h.service.AutoSchedule(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download the timetable
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.Export(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	if doc.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Payload)
}

// SaveSnapshot godoc
// @Summary Persist the timetable as a new snapshot version
// @Tags Timetable
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetable/snapshots [post]
func (h *TimetableHandler) SaveSnapshot(c *gin.Context) {
	snapshot, err := h.service.SaveSnapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, snapshot)
}

// RestoreSnapshot godoc
// @Summary Replace the timetable with the newest snapshot
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/snapshots/restore [post]
func (h *TimetableHandler) RestoreSnapshot(c *gin.Context) {
	snapshot, err := h.service.RestoreLatest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot)
}
