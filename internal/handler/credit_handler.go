package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/internal/service"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CreditHandler serves the caller's credit summary
type CreditHandler struct {
	credits service.CreditService
	now     func() time.Time
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(credits service.CreditService) *CreditHandler {
	return &CreditHandler{credits: credits, now: time.Now}
}

// GetSummary handles GET /credits: remaining credits for this and next month
func (h *CreditHandler) GetSummary(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.credit.summary")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := requireUser(c, span)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("user_id", userID))

	summary, err := h.credits.GetSummary(ctx, userID, h.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
