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

// ScheduleHandler serves the schedule list and admin schedule management
type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// ListSchedules handles GET /schedules?from=&to=&only_with_credits=
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.schedule.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := requireUser(c, span)
	if !ok {
		return
	}

	var q dto.ListSchedulesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Bool("only_with_credits", q.OnlyWithCredits),
	)

	schedules, err := h.scheduleService.ListUpcoming(ctx, userID, &q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Data: schedules, Total: len(schedules)})
}

// CreateSchedule handles POST /admin/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.schedule.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("class_id", req.ClassID))

	schedule, err := h.scheduleService.Create(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

// DeleteSchedule handles DELETE /admin/schedules/:id. Bookings go with it.
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.schedule.delete")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id := c.Param("id")
	span.SetAttributes(attribute.String("schedule_id", id))

	if err := h.scheduleService.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Schedule deleted"})
}

// GenerateSchedules handles POST /admin/schedules/generate
func (h *ScheduleHandler) GenerateSchedules(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.schedule.generate")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.GenerateSchedulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("from", req.From),
		attribute.String("to", req.To),
	)

	result, err := h.scheduleService.Generate(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("generated", result.Generated))
	c.JSON(http.StatusOK, result)
}
