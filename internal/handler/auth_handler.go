package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

// AuthHandler exposes the identity carried by the caller's access token.
type AuthHandler struct{}

// NewAuthHandler creates a new handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type whoAmI struct {
	UserID    string     `json:"userId"`
	Role      string     `json:"role"`
	Email     string     `json:"email,omitempty"`
	FullName  string     `json:"fullName,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CanEdit   bool       `json:"canEdit"`
}

// Me godoc
// @Summary Current identity
// @Description Returns the claims of the bearer token and whether it may edit the timetable
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	out := whoAmI{
		UserID:   claims.UserID,
		Role:     string(claims.Role),
		Email:    claims.Email,
		FullName: claims.FullName,
		CanEdit:  middleware.HasRole(claims.Role, middleware.EditorRoles...),
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		out.ExpiresAt = &exp
	}
	response.JSON(c, http.StatusOK, out)
}
