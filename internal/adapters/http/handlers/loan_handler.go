package handlers

import (
	"libradesk/internal/adapters/http/middleware"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles circulation endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// Checkout lends a copy to a member (staff)
// @Summary Check out a book
// @Description Due date defaults to now plus the configured loan period
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CheckoutInput true "Checkout"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Checkout(c *fiber.Ctx) error {
	var input services.CheckoutInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Checkout(c.Context(), &input, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err, "Failed to check out book")
	}

	return response.Created(c, "Book checked out successfully", loan)
}

// Return closes a loan (staff)
// @Summary Return a book
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.Return(c.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		return fail(c, err, "Failed to return book")
	}

	return response.Success(c, "Book returned successfully", loan)
}

// Get returns one loan; members only see their own
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.Get(c.Context(), id, middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		return fail(c, err, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// List lists loans (staff)
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, overdue or returned"
// @Param user_id query int false "Borrower"
// @Param book_id query int false "Book"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} pagination.Response
// @Failure 400 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	input := services.LoanListInput{Status: c.Query("status")}
	if id, ok := queryID(c, "user_id"); ok {
		input.UserID = &id
	}
	if id, ok := queryID(c, "book_id"); ok {
		input.BookID = &id
	}
	return h.list(c, input)
}

// Mine lists the caller's loans
// @Summary My loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param status query string false "active, overdue or returned"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} pagination.Response
// @Router /loans/me [get]
func (h *LoanHandler) Mine(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	return h.list(c, services.LoanListInput{UserID: &userID, Status: c.Query("status")})
}

func (h *LoanHandler) list(c *fiber.Ctx, input services.LoanListInput) error {
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.List(c.Context(), input, params)
	if err != nil {
		return fail(c, err, "Failed to list loans")
	}

	return c.JSON(pagination.NewResponse(loans, params, total))
}

func queryID(c *fiber.Ctx, name string) (uint, bool) {
	id := c.QueryInt(name, 0)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}
