package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tutoring-schedule/internal/handler"
    "github.com/iliyamo/tutoring-schedule/internal/middleware"
)

// Deps carries what the routes need.  Cache and RateLimit may be nil.
type Deps struct {
    Schedule  *handler.ScheduleHandler
    JWTSecret string
    Cache     *middleware.ResponseCache
    RateLimit echo.MiddlewareFunc
}

// RegisterRoutes mounts the health probe and the staff API.  Every /v1
// route requires a staff token; week generation is limited to admins.
func RegisterRoutes(e *echo.Echo, d Deps) {
    e.Validator = handler.NewRequestValidator()
    e.GET("/healthz", handler.Health)

    limit := d.RateLimit
    if limit == nil {
        limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    cached := d.Cache.Middleware()

    v1 := e.Group("/v1",
        middleware.JWTAuth(d.JWTSecret),
        middleware.RequireRole(middleware.RoleAdmin, middleware.RoleStaff),
    )

    h := d.Schedule
    v1.POST("/bookings", h.ProposeBooking, limit)
    v1.GET("/bookings/:kind/:id", h.GetBooking)
    v1.PUT("/bookings/:kind/:id", h.RescheduleBooking, limit)
    v1.PATCH("/bookings/:kind/:id", h.RescheduleBooking, limit)
    v1.DELETE("/bookings/:kind/:id", h.CancelBooking, limit)

    branches := v1.Group("/branches/:branch_id")
    branches.GET("/grid", h.Grid, cached)
    branches.GET("/weeks/:week_start/status", h.GenerationStatus, cached)
    branches.POST("/weeks/:week_start/generate", h.GenerateWeek,
        middleware.RequireRole(middleware.RoleAdmin), limit)
}
