package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/middleware"
)

// Routes bundles the handlers mounted under the API prefix.
type Routes struct {
	Catalog   *CatalogHandler
	Timetable *TimetableHandler
	Auth      *AuthHandler
	Tokens    middleware.TokenValidator
}

// Register mounts the API. Reads are public; mutations need an editor token.
func (r Routes) Register(group *gin.RouterGroup) {
	group.Use(middleware.OptionalJWT(r.Tokens))

	group.GET("/auth/me", middleware.JWT(r.Tokens), r.Auth.Me)

	group.GET("/subjects", r.Catalog.ListSubjects)
	group.GET("/teachers", r.Catalog.ListTeachers)
	group.GET("/rooms", r.Catalog.ListRooms)
	group.GET("/layout", r.Catalog.Layout)
	group.GET("/lessons", r.Catalog.ListLessons)

	group.GET("/timetable", r.Timetable.Grid)
	group.GET("/timetable/remaining", r.Timetable.Remaining)
	group.POST("/timetable/evaluate", r.Timetable.Evaluate)
	group.GET("/timetable/export", r.Timetable.Export)

	edit := group.Group("")
	edit.Use(middleware.JWT(r.Tokens), middleware.RequireRoles(middleware.EditorRoles...))

	edit.POST("/subjects", r.Catalog.CreateSubject)
	edit.PATCH("/subjects/:id/default-count", r.Catalog.SetDefaultCount)
	edit.DELETE("/subjects/:id", r.Catalog.DeleteSubject)
	edit.POST("/teachers", r.Catalog.CreateTeacher)
	edit.PUT("/teachers/:id", r.Catalog.UpdateTeacher)
	edit.DELETE("/teachers/:id", r.Catalog.DeleteTeacher)
	edit.POST("/rooms", r.Catalog.CreateRoom)
	edit.DELETE("/rooms/:id", r.Catalog.DeleteRoom)
	edit.PUT("/layout", r.Catalog.UpdateLayout)
	edit.POST("/lessons", r.Catalog.CreateLessons)
	edit.POST("/lessons/generate", r.Catalog.GenerateLessons)
	edit.DELETE("/lessons/:id", r.Catalog.DeleteLesson)

	edit.POST("/timetable/placements", r.Timetable.Place)
	edit.DELETE("/timetable/placements/:id", r.Timetable.Unplace)
	edit.DELETE("/timetable/placements", r.Timetable.Reset)
	edit.POST("/timetable/auto-schedule", r.Timetable.AutoSchedule)
	edit.POST("/timetable/snapshots", r.Timetable.SaveSnapshot)
	edit.POST("/timetable/snapshots/restore", r.Timetable.RestoreSnapshot)
}
