package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kickylau/DOPE/internal/handlers"
	"github.com/kickylau/DOPE/internal/session"
)

type Deps struct {
	DB             *gorm.DB
	Session        *session.Service
	UserHandler    *handlers.UserHandler
	SessionHandler *handlers.SessionHandler
	CafeHandler    *handlers.CafeHandler
	ReviewHandler  *handlers.ReviewHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api", d.Session.Restore)

	api.POST("/users", d.UserHandler.Signup)

	api.GET("/session", d.SessionHandler.Restore)
	api.POST("/session", d.SessionHandler.Login)
	api.DELETE("/session", d.SessionHandler.Logout)

	cafes := api.Group("/cafes")
	cafes.GET("", d.CafeHandler.List)
	cafes.GET("/search", d.SearchHandler.Search)
	cafes.GET("/:id", d.CafeHandler.Get)
	cafes.POST("/new", d.CafeHandler.Create, d.Session.RequireSession)
	cafes.PUT("/:id", d.CafeHandler.Update, d.Session.RequireSession)
	cafes.DELETE("/:id", d.CafeHandler.Delete, d.Session.RequireSession)

	reviews := api.Group("/reviews")
	reviews.GET("/cafes/:businessId", d.ReviewHandler.ListByCafe)
	reviews.GET("/:id", d.ReviewHandler.Get)
	reviews.POST("/new", d.ReviewHandler.Create, d.Session.RequireSession)
	reviews.DELETE("/:id", d.ReviewHandler.Delete, d.Session.RequireSession)
}
