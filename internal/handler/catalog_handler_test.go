package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
)

func catalogRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := repository.NewTimetableStore(models.Layout{Days: []string{"Mon", "Tue"}, Periods: 3, Cohorts: []string{"Y7", "Y8"}})
	h := NewCatalogHandler(service.NewCatalogService(store, nil, nil))
	router := gin.New()
	router.GET("/subjects", h.ListSubjects)
	router.POST("/subjects", h.CreateSubject)
	router.PATCH("/subjects/:id/default-count", h.SetDefaultCount)
	router.POST("/teachers", h.CreateTeacher)
	router.POST("/rooms", h.CreateRoom)
	router.DELETE("/rooms/:id", h.DeleteRoom)
	router.GET("/lessons", h.ListLessons)
	router.POST("/lessons", h.CreateLessons)
	router.PUT("/layout", h.UpdateLayout)
	return router
}

func decodeData(t *testing.T, body []byte, dest interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func TestCatalogHandlerLessonLifecycle(t *testing.T) {
	router := catalogRouter()

	w := serve(router, http.MethodPost, "/subjects", []byte(`{"name":"Mathematics","defaultCount":3}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var subject models.Subject
	decodeData(t, w.Body.Bytes(), &subject)

	w = serve(router, http.MethodPost, "/teachers", []byte(`{"name":"Ada Lovelace"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var teacher models.Teacher
	decodeData(t, w.Body.Bytes(), &teacher)
	assert.NotEmpty(t, teacher.Code)

	w = serve(router, http.MethodPost, "/rooms", []byte(`{"name":"G-101"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var room models.Room
	decodeData(t, w.Body.Bytes(), &room)

	lesson := `{"cohorts":["Y7","Y8"],"merged":true,"subjectId":"` + subject.ID + `","teacherId":"` + teacher.ID + `","roomId":"` + room.ID + `","count":2}`
	w = serve(router, http.MethodPost, "/lessons", []byte(lesson))
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(router, http.MethodPost, "/lessons", []byte(lesson))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(router, http.MethodDelete, "/rooms/"+room.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(router, http.MethodGet, "/lessons", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lessons []models.Lesson
	decodeData(t, w.Body.Bytes(), &lessons)
	require.Len(t, lessons, 1)
	assert.True(t, lessons[0].Merged())
}

func TestCatalogHandlerValidation(t *testing.T) {
	router := catalogRouter()

	w := serve(router, http.MethodPost, "/subjects", []byte(`{"name":""}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPatch, "/subjects/none/default-count", []byte(`{"defaultCount":2}`))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodPut, "/layout", []byte(`{"days":[],"periods":5,"cohorts":["Y7"]}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/subjects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"meta":{"total":0}}`, w.Body.String())
}
