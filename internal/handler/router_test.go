package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
)

func apiRouter(t *testing.T) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := repository.NewTimetableStore(models.Layout{Days: []string{"Mon", "Tue"}, Periods: 2, Cohorts: []string{"Y7"}})
	auth := service.NewAuthService(nil, service.AuthConfig{AccessTokenSecret: "secret", Issuer: service.TokenIssuer})
	timetable := service.NewTimetableService(store, service.NewPlacementService(nil), nil, nil)

	router := gin.New()
	Routes{
		Catalog:   NewCatalogHandler(service.NewCatalogService(store, nil, nil)),
		Timetable: NewTimetableHandler(timetable),
		Auth:      NewAuthHandler(),
		Tokens:    auth,
	}.Register(router.Group("/api/v1"))
	return router, auth
}

func request(router *gin.Engine, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutesReadsArePublic(t *testing.T) {
	router, _ := apiRouter(t)

	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/api/v1/timetable", "", nil).Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/api/v1/subjects", "", nil).Code)
}

func TestRoutesMutationsNeedEditor(t *testing.T) {
	router, auth := apiRouter(t)
	body := []byte(`{"name":"Chemistry"}`)

	w := request(router, http.MethodPost, "/api/v1/subjects", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	viewer, _, err := auth.IssueToken("u1", models.RoleViewer, "", "")
	require.NoError(t, err)
	w = request(router, http.MethodPost, "/api/v1/subjects", viewer, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, _, err := auth.IssueToken("u2", models.RoleAdmin, "", "")
	require.NoError(t, err)
	w = request(router, http.MethodPost, "/api/v1/subjects", admin, body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAuthMe(t *testing.T) {
	router, auth := apiRouter(t)

	assert.Equal(t, http.StatusUnauthorized, request(router, http.MethodGet, "/api/v1/auth/me", "", nil).Code)

	token, _, err := auth.IssueToken("u1", models.RoleTeacher, "t@example.com", "Tess")
	require.NoError(t, err)
	w := request(router, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me whoAmI
	decodeData(t, w.Body.Bytes(), &me)
	assert.Equal(t, "u1", me.UserID)
	assert.Equal(t, "TEACHER", me.Role)
	assert.False(t, me.CanEdit)
	assert.NotNil(t, me.ExpiresAt)
}
