package handlers

import (
	"libradesk/internal/adapters/persistence/repositories"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/pagination"
	"libradesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// List searches the catalog
// @Summary Search books
// @Description Search by title, author or ISBN and filter by genre or branch
// @Tags Books
// @Produce json
// @Param q query string false "Title, author or ISBN"
// @Param genre query string false "Genre"
// @Param branch query string false "Branch"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} pagination.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	filter := repositories.BookFilter{
		Query:  c.Query("q"),
		Genre:  c.Query("genre"),
		Branch: c.Query("branch"),
	}

	books, total, err := h.bookService.List(c.Context(), filter, params)
	if err != nil {
		return fail(c, err, "Failed to list books")
	}

	return c.JSON(pagination.NewResponse(books, params, total))
}

// Get returns one book
// @Summary Get book
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.Get(c.Context(), id)
	if err != nil {
		return fail(c, err, "Failed to get book")
	}

	return response.Success(c, "Book retrieved successfully", book)
}

// Create adds a book to the catalog (staff)
// @Summary Add book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateBookInput true "Book"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var input services.CreateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.Create(c.Context(), &input)
	if err != nil {
		return fail(c, err, "Failed to add book")
	}

	return response.Created(c, "Book added successfully", book)
}

// Update changes catalog fields (staff)
// @Summary Update book
// @Description Copies total cannot drop below the copies currently on loan
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body services.UpdateBookInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	var input services.UpdateBookInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.bookService.Update(c.Context(), id, &input)
	if err != nil {
		return fail(c, err, "Failed to update book")
	}

	return response.Success(c, "Book updated successfully", book)
}

// Delete removes a book with no copies out (staff)
// @Summary Delete book
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	if err := h.bookService.Delete(c.Context(), id); err != nil {
		return fail(c, err, "Failed to delete book")
	}

	return response.Success(c, "Book deleted successfully", nil)
}

// Import upserts a batch of books by ISBN (staff)
// @Summary Import books
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body []services.CreateBookInput true "Books"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books/import [post]
func (h *BookHandler) Import(c *fiber.Ctx) error {
	var inputs []*services.CreateBookInput
	if err := c.BodyParser(&inputs); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	created, updated, err := h.bookService.Import(c.Context(), inputs)
	if err != nil {
		return fail(c, err, "Failed to import books")
	}

	return response.Success(c, "Books imported successfully", fiber.Map{
		"created": created,
		"updated": updated,
	})
}

// Export returns the whole catalog (staff)
// @Summary Export books
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /books/export [get]
func (h *BookHandler) Export(c *fiber.Ctx) error {
	books, err := h.bookService.Export(c.Context())
	if err != nil {
		return fail(c, err, "Failed to export books")
	}

	return response.Success(c, "Catalog exported successfully", books)
}
