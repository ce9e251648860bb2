package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/pkg/auth"
	"github.com/prohmpiriya/gym-booking/pkg/middleware"
)

// Handlers groups every HTTP handler of the API
type Handlers struct {
	Health   *HealthHandler
	Booking  *BookingHandler
	Credit   *CreditHandler
	Schedule *ScheduleHandler
	Catalog  *CatalogHandler
}

// RouteOptions are the middlewares mounted on the API groups
type RouteOptions struct {
	Auth gin.HandlerFunc
	// Write runs before POST /book-class and POST /cancel-booking
	// (rate limiting, idempotency)
	Write []gin.HandlerFunc
}

// Register mounts the ops endpoints at the root and the API under /api/v1
func (h *Handlers) Register(router gin.IRouter, opts RouteOptions) {
	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/metrics", h.Health.Metrics)

	v1 := router.Group("/api/v1")
	if opts.Auth != nil {
		v1.Use(opts.Auth)
	}

	write := func(final gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, opts.Write...), final)
	}
	v1.POST("/book-class", write(h.Booking.BookClass)...)
	v1.POST("/cancel-booking", write(h.Booking.CancelBooking)...)
	v1.GET("/bookings", h.Booking.ListMyBookings)
	v1.GET("/credits", h.Credit.GetSummary)
	v1.GET("/schedules", h.Schedule.ListSchedules)
	v1.GET("/classes", h.Catalog.ListClasses)
	v1.GET("/packages", h.Catalog.ListPackages(true))
	v1.POST("/packages/:id/acquire", h.Catalog.AcquirePackage)

	admin := v1.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/classes", h.Catalog.CreateClass)
		admin.PUT("/classes/:id", h.Catalog.UpdateClass)
		admin.DELETE("/classes/:id", h.Catalog.DeleteClass)

		admin.GET("/packages", h.Catalog.ListPackages(false))
		admin.POST("/packages", h.Catalog.CreatePackage)
		admin.PUT("/packages/:id", h.Catalog.UpdatePackage)
		admin.DELETE("/packages/:id", h.Catalog.DeletePackage)

		admin.GET("/rules", h.Catalog.ListRules)
		admin.POST("/rules", h.Catalog.CreateRules)
		admin.DELETE("/rules/:id", h.Catalog.DeleteRule)

		admin.GET("/business-hours", h.Catalog.ListBusinessHours)
		admin.PUT("/business-hours", h.Catalog.UpdateBusinessHours)

		admin.POST("/schedules", h.Schedule.CreateSchedule)
		admin.POST("/schedules/generate", h.Schedule.GenerateSchedules)
		admin.DELETE("/schedules/:id", h.Schedule.DeleteSchedule)
	}
}
