package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/service"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookingService service.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookClass handles POST /book-class.
// Capacity, duplicates and credits are decided atomically by the service.
func (h *BookingHandler) BookClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.book_class")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := requireUser(c, span)
	if !ok {
		return
	}

	var req dto.BookClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("schedule_id", req.ScheduleID),
	)

	result, err := h.bookingService.BookClass(ctx, userID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("booking_id", result.BookingID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, result)
}

// CancelBooking handles POST /cancel-booking. Only the owner can cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.cancel")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := requireUser(c, span)
	if !ok {
		return
	}

	var req dto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("booking_id", req.BookingID),
	)

	result, err := h.bookingService.CancelBooking(ctx, userID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, result)
}

// ListMyBookings handles GET /bookings
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.booking.list_mine")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := requireUser(c, span)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	bookings, err := h.bookingService.ListMyBookings(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{Data: bookings, Total: len(bookings)})
}
