// Package router wires every handler to its route and hangs the right
// middleware off each group.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/calendar-suite/internal/auth"
	"github.com/iliyamo/calendar-suite/internal/config"
	"github.com/iliyamo/calendar-suite/internal/handler"
	"github.com/iliyamo/calendar-suite/internal/middleware"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg       config.Config
	Redis     *redis.Client
	Tokens    *auth.TokenService
	Blacklist *auth.Blacklist
	Users     handler.UserStore

	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Admin     *handler.AdminHandler
	Calendars *handler.CalendarHandler
	Events    *handler.EventHandler
	Tasks     *handler.TaskHandler
	Stats     *handler.StatsHandler
}

// Register sets up global middleware and all routes on e.
func Register(e *echo.Echo, d Deps) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     d.Cfg.CORSOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.RateLimit(d.Redis, d.Cfg.RatePerMinute, d.Cfg.RatePerHour))

	e.GET("/health", handler.Health)

	requireUser := middleware.RequireUser(d.Tokens, d.Blacklist, d.Users)
	requireAdmin := middleware.RequireAdmin()

	api := e.Group("/api/v1")

	ag := api.Group("/auth")
	ag.POST("/signup", d.Auth.Signup)
	ag.POST("/login", d.Auth.Login)
	ag.POST("/refresh", d.Auth.Refresh)
	ag.POST("/logout", d.Auth.Logout, requireUser)
	ag.GET("/me", d.Auth.Me, requireUser)
	ag.POST("/firebase", d.Auth.FirebaseLogin)
	ag.GET("/google/login", d.Auth.GoogleLogin)
	ag.GET("/google/callback", d.Auth.GoogleCallback)

	ug := api.Group("/users", requireUser)
	ug.GET("/me", d.User.Me)
	ug.PUT("/me", d.User.UpdateMe)
	ug.GET("", d.User.List, requireAdmin)
	ug.GET("/:id", d.User.Get, requireAdmin)
	ug.PUT("/:id", d.User.Update, requireAdmin)

	cg := api.Group("/calendars", requireUser)
	cg.POST("", d.Calendars.Create)
	cg.GET("", d.Calendars.List)
	cg.GET("/:id", d.Calendars.Get)
	cg.PUT("/:id", d.Calendars.Update)
	cg.DELETE("/:id", d.Calendars.Delete)

	eg := api.Group("/events", requireUser)
	eg.POST("", d.Events.Create)
	eg.GET("", d.Events.List)
	eg.GET("/:id", d.Events.Get)
	eg.PUT("/:id", d.Events.Update)
	eg.DELETE("/:id", d.Events.Delete)

	tg := api.Group("/tasks", requireUser)
	tg.POST("", d.Tasks.Create)
	tg.GET("", d.Tasks.List)
	tg.GET("/:id", d.Tasks.Get)
	tg.PUT("/:id", d.Tasks.Update)
	tg.DELETE("/:id", d.Tasks.Delete)

	adm := api.Group("/admin", requireUser, requireAdmin)
	adm.GET("/users", d.User.List)
	adm.GET("/users/:id", d.User.Get)
	adm.PATCH("/users/:id/role", d.Admin.ChangeRole)
	adm.DELETE("/users/:id", d.Admin.Delete)
	adm.POST("/users/:id/ban", d.Admin.Ban)
	adm.POST("/users/:id/unban", d.Admin.Unban)
	adm.POST("/users/:id/activate", d.Admin.Activate)
	adm.POST("/users/:id/deactivate", d.Admin.Deactivate)

	sg := api.Group("/stats", requireUser, requireAdmin)
	sg.GET("/daily", d.Stats.Daily)
	sg.GET("/top-calendars", d.Stats.TopCalendars)
	sg.GET("/summary", d.Stats.Summary)
}
