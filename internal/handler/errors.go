package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/internal/domain"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/pkg/logger"
	"github.com/prohmpiriya/gym-booking/pkg/middleware"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// requireUser returns the caller's id or writes 401
func requireUser(c *gin.Context, span trace.Span) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
		return "", false
	}
	return userID, true
}

func badRequest(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "invalid request")
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid request",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// fail records err on span and writes the mapped response
func fail(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	handleError(c, err)
}

// handleError maps domain errors to HTTP responses
func handleError(c *gin.Context, err error) {
	switch {
	// Cancellation failures carry their reason; check them before plain not-found
	case errors.Is(err, domain.ErrCancelFailed):
		status := http.StatusNotFound
		if errors.Is(err, domain.ErrNotBookingOwner) {
			status = http.StatusForbidden
		}
		c.JSON(status, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "CANCEL_FAILED",
		})
	case errors.Is(err, domain.ErrAlreadyBooked):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "ALREADY_BOOKED",
		})
	case errors.Is(err, domain.ErrClassFull):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "CLASS_FULL",
		})
	case errors.Is(err, domain.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "SCHEDULE_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrInsertFailed):
		logger.Get().ErrorContext(c.Request.Context(), "Booking insert failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: domain.ErrInsertFailed.Error(),
			Code:  "ERROR_INSERT_FAILED",
		})

	// Credit entitlement
	case errors.Is(err, domain.ErrNoActivePackage):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:   err.Error(),
			Code:    "NO_ACTIVE_PACKAGE",
			Message: "Acquire a package for this month to book classes",
		})
	case errors.Is(err, domain.ErrClassTypeNotCovered):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "CLASS_TYPE_NOT_COVERED",
		})
	case errors.Is(err, domain.ErrNoCreditsRemaining):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NO_CREDITS",
		})

	case errors.Is(err, domain.ErrPackageAlreadyAcquired):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "PACKAGE_ALREADY_ACQUIRED",
		})
	case errors.Is(err, domain.ErrPackageInactive):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "PACKAGE_INACTIVE",
		})
	case errors.Is(err, domain.ErrScheduleAlreadyExists),
		errors.Is(err, domain.ErrRuleAlreadyExists):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "ALREADY_EXISTS",
		})
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
	default:
		logger.Get().ErrorContext(c.Request.Context(), "Unhandled error",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
