package handlers

import (
	"libradesk/internal/adapters/http/middleware"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VisitHandler handles gate endpoints
type VisitHandler struct {
	visitService *services.VisitService
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(visitService *services.VisitService) *VisitHandler {
	return &VisitHandler{visitService: visitService}
}

// CheckIn records a visitor entering (staff)
// @Summary Visitor check-in
// @Description Identify by user_id, student_id or badge_code; the first present wins
// @Tags Visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CheckInInput true "Visitor"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /visits [post]
func (h *VisitHandler) CheckIn(c *fiber.Ctx) error {
	var input services.CheckInInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	visit, err := h.visitService.CheckIn(c.Context(), &input, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err, "Failed to check in visitor")
	}

	return response.Created(c, "Visitor checked in", visit)
}

// CheckOut stamps the exit of a visit (staff)
// @Summary Visit check-out
// @Tags Visits
// @Produce json
// @Security BearerAuth
// @Param id path int true "Visit ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /visits/{id}/checkout [post]
func (h *VisitHandler) CheckOut(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid visit ID")
	}

	visit, err := h.visitService.CheckOut(c.Context(), id)
	if err != nil {
		return fail(c, err, "Failed to check out visitor")
	}

	return response.Success(c, "Visitor checked out", visit)
}

// CheckOutVisitor closes the open visit of a visitor (staff)
// @Summary Visitor check-out by identity
// @Tags Visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.VisitorInput true "Visitor"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /visits/checkout [post]
func (h *VisitHandler) CheckOutVisitor(c *fiber.Ctx) error {
	var input services.VisitorInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	visit, err := h.visitService.CheckOutVisitor(c.Context(), &input)
	if err != nil {
		return fail(c, err, "Failed to check out visitor")
	}

	return response.Success(c, "Visitor checked out", visit)
}

// ListRecent lists visits newest first (staff)
// @Summary Recent visits
// @Tags Visits
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} pagination.Response
// @Router /visits [get]
func (h *VisitHandler) ListRecent(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	visits, total, err := h.visitService.ListRecent(c.Context(), params)
	if err != nil {
		return fail(c, err, "Failed to list visits")
	}

	return c.JSON(pagination.NewResponse(visits, params, total))
}
