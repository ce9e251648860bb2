package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/gym-booking/internal/dto"
	"github.com/prohmpiriya/gym-booking/internal/service"
	"github.com/prohmpiriya/gym-booking/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// CatalogHandler serves classes, packages, scheduling rules and business hours
type CatalogHandler struct {
	classes  service.ClassService
	packages service.PackageService
	rules    service.RuleService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(classes service.ClassService, packages service.PackageService, rules service.RuleService) *CatalogHandler {
	return &CatalogHandler{classes: classes, packages: packages, rules: rules}
}

// ListClasses handles GET /classes
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.list")
	defer span.End()

	classes, err := h.classes.List(ctx)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Data: classes, Total: len(classes)})
}

// CreateClass handles POST /admin/classes
func (h *CatalogHandler) CreateClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.create")
	defer span.End()

	var req dto.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	class, err := h.classes.Create(ctx, &req)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

// UpdateClass handles PUT /admin/classes/:id
func (h *CatalogHandler) UpdateClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.update")
	defer span.End()
	span.SetAttributes(attribute.String("class_id", c.Param("id")))

	var req dto.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	class, err := h.classes.Update(ctx, c.Param("id"), &req)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

// DeleteClass handles DELETE /admin/classes/:id
func (h *CatalogHandler) DeleteClass(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.class.delete")
	defer span.End()
	span.SetAttributes(attribute.String("class_id", c.Param("id")))

	if err := h.classes.Delete(ctx, c.Param("id")); err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Class deleted"})
}

// ListPackages handles GET /packages (active only) and GET /admin/packages (all)
func (h *CatalogHandler) ListPackages(activeOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.package.list")
		defer span.End()

		packages, err := h.packages.List(ctx, activeOnly)
		if err != nil {
			fail(c, span, err)
			return
		}
		c.JSON(http.StatusOK, dto.ListResponse{Data: packages, Total: len(packages)})
	}
}

// AcquirePackage handles POST /packages/:id/acquire
func (h *CatalogHandler) AcquirePackage(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.package.acquire")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := requireUser(c, span)
	if !ok {
		return
	}
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("package_id", c.Param("id")),
	)

	result, err := h.packages.Acquire(ctx, userID, c.Param("id"))
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CreatePackage handles POST /admin/packages
func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.package.create")
	defer span.End()

	var req dto.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	pkg, err := h.packages.Create(ctx, &req)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// UpdatePackage handles PUT /admin/packages/:id. Items are replaced.
func (h *CatalogHandler) UpdatePackage(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.package.update")
	defer span.End()

	var req dto.PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	pkg, err := h.packages.Update(ctx, c.Param("id"), &req)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// DeletePackage handles DELETE /admin/packages/:id
func (h *CatalogHandler) DeletePackage(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.package.delete")
	defer span.End()

	if err := h.packages.Delete(ctx, c.Param("id")); err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Package deleted"})
}

// ListRules handles GET /admin/rules
func (h *CatalogHandler) ListRules(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.rule.list")
	defer span.End()

	rules, err := h.rules.List(ctx)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Data: rules, Total: len(rules)})
}

// CreateRules handles POST /admin/rules
func (h *CatalogHandler) CreateRules(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.rule.create")
	defer span.End()

	var req dto.CreateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	rules, err := h.rules.Create(ctx, &req)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ListResponse{Data: rules, Total: len(rules)})
}

// DeleteRule handles DELETE /admin/rules/:id
func (h *CatalogHandler) DeleteRule(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.rule.delete")
	defer span.End()

	if err := h.rules.Delete(ctx, c.Param("id")); err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Rule deleted"})
}

// ListBusinessHours handles GET /admin/business-hours
func (h *CatalogHandler) ListBusinessHours(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.business_hours.list")
	defer span.End()

	hours, err := h.rules.ListBusinessHours(ctx)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Data: hours, Total: len(hours)})
}

// UpdateBusinessHours handles PUT /admin/business-hours
func (h *CatalogHandler) UpdateBusinessHours(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.business_hours.update")
	defer span.End()

	var req dto.UpdateBusinessHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, span, err)
		return
	}
	hours, err := h.rules.UpdateBusinessHours(ctx, &req)
	if err != nil {
		fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Data: hours, Total: len(hours)})
}
