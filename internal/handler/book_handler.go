package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"readnest/internal/repository"
	"readnest/internal/service"
)

// BookHandler serves the catalogue.
type BookHandler struct {
	svc service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(svc service.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

// CreateBookRequest represents a new catalogue entry.
type CreateBookRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Author      string  `json:"author" validate:"required,max=255"`
	Genre       string  `json:"genre" validate:"required,max=100"`
	ISBN        string  `json:"isbn" validate:"required,max=32"`
	Description *string `json:"description"`
}

// UpdateBookRequest replaces a book. Omitting isAvailable marks the book available.
type UpdateBookRequest struct {
	ID          uint    `json:"id" validate:"required"`
	Title       string  `json:"title" validate:"required,max=255"`
	Author      string  `json:"author" validate:"required,max=255"`
	Genre       string  `json:"genre" validate:"required,max=100"`
	ISBN        string  `json:"isbn" validate:"required,max=32"`
	Description *string `json:"description"`
	IsAvailable *bool   `json:"isAvailable"`
}

// ListBooks godoc
// @Summary List books
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param title query string false "Exact title"
// @Param author query string false "Exact author"
// @Param genre query string false "Exact genre"
// @Param isbn query string false "Exact ISBN"
// @Param isAvailable query bool false "Availability"
// @Param searchQuery query string false "Substring match on title, author, genre, ISBN and description"
// @Param pageNumber query int false "Page number" default(1)
// @Param pageSize query int false "Page size, at most 20" default(10)
// @Success 200 {array} model.Book
// @Header 200 {string} X-Pagination "Page metadata as JSON"
// @Failure 400 {object} errors.ErrorResponse
// @Router /books [get]
func (h *BookHandler) ListBooks(c echo.Context) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}
	available, err := optionalBool(c, "isAvailable")
	if err != nil {
		return err
	}

	books, meta, err := h.svc.ListBooks(c.Request().Context(), repository.BookFilter{
		Title:       c.QueryParam("title"),
		Author:      c.QueryParam("author"),
		Genre:       c.QueryParam("genre"),
		ISBN:        c.QueryParam("isbn"),
		IsAvailable: available,
		SearchQuery: c.QueryParam("searchQuery"),
	}, page)
	if err != nil {
		return fail(c, err)
	}
	setPagination(c, meta)
	return c.JSON(http.StatusOK, books)
}

// GetBook godoc
// @Summary Get book by id
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} model.Book
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	book, err := h.svc.GetBook(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

// CreateBook godoc
// @Summary Add a book to the catalogue
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookRequest true "Book"
// @Success 201 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /books [post]
func (h *BookHandler) CreateBook(c echo.Context) error {
	var req CreateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	book, err := h.svc.CreateBook(c.Request().Context(), service.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		ISBN:        req.ISBN,
		Description: req.Description,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
// @Summary Replace a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body UpdateBookRequest true "Book"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateBookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	book, err := h.svc.UpdateBook(c.Request().Context(), id, service.BookInput{
		ID:          req.ID,
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		ISBN:        req.ISBN,
		Description: req.Description,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
// @Summary Remove a book and its loan history
// @Tags books
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /books/{id} [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBook(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
