package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"readnest/internal/errors"
	"readnest/internal/model"
	"readnest/internal/repository"
	"readnest/internal/service"
)

// BookLoanHandler handles borrowing and returning.
type BookLoanHandler struct {
	svc service.BookLoanService
}

// NewBookLoanHandler creates a new book loan handler.
func NewBookLoanHandler(svc service.BookLoanService) *BookLoanHandler {
	return &BookLoanHandler{svc: svc}
}

// BorrowRequest borrows a book for the caller. Dates are optional.
type BorrowRequest struct {
	BookID       uint       `json:"bookId" validate:"required"`
	BorrowedDate *time.Time `json:"borrowedDate"`
	DueDate      *time.Time `json:"dueDate"`
}

// ListLoans godoc
// @Summary List book loans
// @Description Library members only ever see their own loans.
// @Tags book-loans
// @Produce json
// @Security BearerAuth
// @Param userId query int false "Borrower"
// @Param bookId query int false "Book"
// @Param isDue query bool false "true: not yet returned, false: returned"
// @Param isOverdue query bool false "true: out past due date"
// @Param searchQuery query string false "Substring match on book title"
// @Param pageNumber query int false "Page number" default(1)
// @Param pageSize query int false "Page size, at most 20" default(10)
// @Success 200 {array} model.BookLoan
// @Header 200 {string} X-Pagination "Page metadata as JSON"
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /book-loans [get]
func (h *BookLoanHandler) ListLoans(c echo.Context) error {
	callerID, claims, err := caller(c)
	if err != nil {
		return err
	}
	page, err := pageFromQuery(c)
	if err != nil {
		return err
	}

	var filter repository.BookLoanFilter
	if filter.UserID, err = optionalUint(c, "userId"); err != nil {
		return err
	}
	if filter.BookID, err = optionalUint(c, "bookId"); err != nil {
		return err
	}
	if filter.IsDue, err = optionalBool(c, "isDue"); err != nil {
		return err
	}
	if filter.IsOverdue, err = optionalBool(c, "isOverdue"); err != nil {
		return err
	}
	filter.SearchQuery = c.QueryParam("searchQuery")

	if claims.Role == model.RoleLibraryMember {
		if filter.UserID != nil && *filter.UserID != callerID {
			return fail(c, errors.ErrForbidden)
		}
		filter.UserID = &callerID
	}

	loans, meta, err := h.svc.ListLoans(c.Request().Context(), filter, page)
	if err != nil {
		return fail(c, err)
	}
	setPagination(c, meta)
	return c.JSON(http.StatusOK, loans)
}

// BorrowBook godoc
// @Summary Borrow a book
// @Tags book-loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BorrowRequest true "Loan"
// @Success 200 {object} model.BookLoan
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /book-loans [post]
func (h *BookLoanHandler) BorrowBook(c echo.Context) error {
	userID, _, err := caller(c)
	if err != nil {
		return err
	}
	var req BorrowRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := service.BorrowInput{BookID: req.BookID}
	if req.BorrowedDate != nil {
		in.BorrowedDate = *req.BorrowedDate
	}
	if req.DueDate != nil {
		in.DueDate = *req.DueDate
	}

	loan, err := h.svc.BorrowBook(c.Request().Context(), userID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, loan)
}

// ReturnBook godoc
// @Summary Return a borrowed book
// @Tags book-loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} model.BookLoan
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /book-loans/{id}/return [post]
func (h *BookLoanHandler) ReturnBook(c echo.Context) error {
	userID, _, err := caller(c)
	if err != nil {
		return err
	}
	loanID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	loan, err := h.svc.ReturnBook(c.Request().Context(), userID, loanID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, loan)
}
