package handlers

import (
	"errors"

	"github.com/MilindPius2005/library-management-system/internal/core/domain"
	"github.com/MilindPius2005/library-management-system/internal/core/services"
	"github.com/MilindPius2005/library-management-system/internal/pkg/pagination"
	"github.com/MilindPius2005/library-management-system/internal/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles circulation endpoints
type LoanHandler struct {
	loanService services.LoanService
	validate    *validator.Validate
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		validate:    validator.New(),
	}
}

// BorrowRequest represents a borrow request
type BorrowRequest struct {
	BookID uint `json:"book_id" validate:"required,gt=0"`
}

// ReturnRequest represents a return request
type ReturnRequest struct {
	LoanID uint `json:"loan_id" validate:"required,gt=0"`
}

// Borrow issues a book copy to the authenticated user
// @Summary Borrow a book
// @Description Issue one available copy of a book to the current user
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BorrowRequest true "Borrow data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /loans/borrow [post]
func (h *LoanHandler) Borrow(c *fiber.Ctx) error {
	var req BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.BadRequest(c, "Book ID is required")
	}

	userID, _ := c.Locals("userID").(uint)

	result, err := h.loanService.Borrow(c.Context(), userID, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookUnavailable):
			return response.BadRequest(c, "Book not available for borrowing")
		case errors.Is(err, domain.ErrLoanLimitExceeded):
			return response.BadRequest(c, "Cannot borrow more than 5 books at a time")
		case errors.Is(err, domain.ErrAlreadyBorrowed):
			return response.Conflict(c, "You have already borrowed this book")
		case errors.Is(err, domain.ErrStoreUnavailable):
			return response.ServiceUnavailable(c, "Store temporarily unavailable, please retry")
		default:
			return response.InternalServerError(c, "Failed to borrow book")
		}
	}

	return response.Success(c, "Book borrowed successfully", result)
}

// Return completes a loan held by the authenticated user
// @Summary Return a book
// @Description Return a borrowed book and report the computed fine
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ReturnRequest true "Return data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /loans/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	var req ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return response.BadRequest(c, "Loan ID is required")
	}

	userID, _ := c.Locals("userID").(uint)

	result, err := h.loanService.Return(c.Context(), userID, req.LoanID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrStoreUnavailable):
			return response.ServiceUnavailable(c, "Store temporarily unavailable, please retry")
		default:
			return response.InternalServerError(c, "Failed to return book")
		}
	}

	return response.Success(c, "Book returned successfully", result)
}

// GetMyLoans lists the user's active loans
// @Summary My active loans
// @Description List the current user's borrowed/overdue loans, due soonest first
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /loans/my [get]
func (h *LoanHandler) GetMyLoans(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)

	loans, err := h.loanService.GetActiveLoans(c.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return response.ServiceUnavailable(c, "Store temporarily unavailable, please retry")
		}
		return response.InternalServerError(c, "Failed to fetch borrowed books")
	}

	return response.Success(c, "Active loans retrieved successfully", fiber.Map{
		"loans": loans,
	})
}

// GetHistory lists the user's borrowing history
// @Summary My borrowing history
// @Description List the current user's loans, newest issue first
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /loans/history [get]
func (h *LoanHandler) GetHistory(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.GetHistory(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return response.ServiceUnavailable(c, "Store temporarily unavailable, please retry")
		}
		return response.InternalServerError(c, "Failed to fetch borrowing history")
	}

	return response.Success(c, "Borrowing history retrieved successfully",
		pagination.NewResponse(loans, params, total))
}
