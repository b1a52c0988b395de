package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	placeReq  dto.PlacementRequest
	placeErr  error
	autoReq   dto.AutoScheduleRequest
	exported  service.ExportFormat
	unplaced  string
	resetDone bool
}

func (m *timetableServiceMock) Grid() (*dto.GridResponse, error) {
	return &dto.GridResponse{Revision: 7, Cells: [][][]string{}}, nil
}

func (m *timetableServiceMock) Remaining() (*dto.RemainingResponse, error) {
	return &dto.RemainingResponse{Remaining: map[string]int{"l1": 2}, Total: 2}, nil
}

func (m *timetableServiceMock) Evaluate(req dto.EvaluateRequest) (*dto.EvaluateResponse, error) {
	return &dto.EvaluateResponse{Legal: true}, nil
}

func (m *timetableServiceMock) Place(req dto.PlacementRequest) (*models.Placement, error) {
	m.placeReq = req
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	return &models.Placement{ID: "p1", LessonID: req.LessonID, Day: *req.Day, Period: *req.Period}, nil
}

func (m *timetableServiceMock) Unplace(placementID string) (*models.Placement, error) {
	m.unplaced = placementID
	if placementID == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "placement not found")
	}
	return &models.Placement{ID: placementID}, nil
}

func (m *timetableServiceMock) Reset() error {
	m.resetDone = true
	return nil
}

func (m *timetableServiceMock) AutoSchedule(req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error) {
	m.autoReq = req
	return &dto.AutoScheduleResponse{Phase: service.PassStrict}, nil
}

func (m *timetableServiceMock) Export(_ context.Context, format service.ExportFormat) (*service.ExportDocument, error) {
	m.exported = format
	return &service.ExportDocument{Filename: "timetable.csv", ContentType: "text/csv", Payload: []byte("Lesson ID\n"), Cached: true}, nil
}

func (m *timetableServiceMock) SaveSnapshot(context.Context) (*dto.SnapshotResponse, error) {
	return nil, appErrors.ErrPersistenceOffline
}

func (m *timetableServiceMock) RestoreLatest(context.Context) (*dto.SnapshotResponse, error) {
	return &dto.SnapshotResponse{ID: "s1", Version: 2}, nil
}

func timetableRouter(mock *timetableServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: mock}
	router := gin.New()
	router.GET("/timetable", h.Grid)
	router.POST("/timetable/placements", h.Place)
	router.DELETE("/timetable/placements/:id", h.Unplace)
	router.DELETE("/timetable/placements", h.Reset)
	router.POST("/timetable/auto-schedule", h.AutoSchedule)
	router.GET("/timetable/export", h.Export)
	router.POST("/timetable/snapshots", h.SaveSnapshot)
	return router
}

func serve(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerPlacePassesOverrideFlags(t *testing.T) {
	mock := &timetableServiceMock{}
	w := serve(timetableRouter(mock), http.MethodPost, "/timetable/placements",
		[]byte(`{"lessonId":"l1","day":2,"period":0,"replaceOccupied":true}`))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "l1", mock.placeReq.LessonID)
	assert.Equal(t, 0, *mock.placeReq.Period)
	assert.True(t, mock.placeReq.ReplaceOccupied)
	assert.False(t, mock.placeReq.ForceUnavailable)
}

func TestTimetableHandlerPlaceRejectionCarriesDetail(t *testing.T) {
	pe := models.NewPlacementError(models.Violation{Kind: models.ViolationTeacherDoubleBooked, Day: "Mon", Period: 1, Resource: "t1"}, nil)
	mock := &timetableServiceMock{
		placeErr: appErrors.Wrap(pe, appErrors.ErrPlacementRejected.Code, appErrors.ErrPlacementRejected.Status, "placement rejected"),
	}
	w := serve(timetableRouter(mock), http.MethodPost, "/timetable/placements", []byte(`{"lessonId":"l1","day":0,"period":1}`))

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error struct{ Code string } `json:"error"`
		Meta  struct {
			Detail map[string]interface{} `json:"detail"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PLACEMENT_REJECTED", body.Error.Code)
	assert.Equal(t, string(models.ViolationTeacherDoubleBooked), body.Meta.Detail["kind"])
}

func TestTimetableHandlerPlaceMalformedJSON(t *testing.T) {
	w := serve(timetableRouter(&timetableServiceMock{}), http.MethodPost, "/timetable/placements", []byte(`{"lessonId":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerAutoScheduleAcceptsEmptyBody(t *testing.T) {
	mock := &timetableServiceMock{}
	router := timetableRouter(mock)

	w := serve(router, http.MethodPost, "/timetable/auto-schedule", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, mock.autoReq.Seed)

	w = serve(router, http.MethodPost, "/timetable/auto-schedule", []byte(`{"seed":11}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.autoReq.Seed)
	assert.Equal(t, int64(11), *mock.autoReq.Seed)
}

func TestTimetableHandlerGridAndDeletes(t *testing.T) {
	mock := &timetableServiceMock{}
	router := timetableRouter(mock)

	w := serve(router, http.MethodGet, "/timetable", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Header().Get("ETag"))

	w = serve(router, http.MethodDelete, "/timetable/placements/p9", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "p9", mock.unplaced)

	w = serve(router, http.MethodDelete, "/timetable/placements/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodDelete, "/timetable/placements", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mock.resetDone)
}

func TestTimetableHandlerExport(t *testing.T) {
	mock := &timetableServiceMock{}
	router := timetableRouter(mock)

	w := serve(router, http.MethodGet, "/timetable/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatCSV, mock.exported)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "timetable.csv")

	w = serve(router, http.MethodGet, "/timetable/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerSnapshotOffline(t *testing.T) {
	w := serve(timetableRouter(&timetableServiceMock{}), http.MethodPost, "/timetable/snapshots", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
