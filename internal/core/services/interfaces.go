package services

import (
	"context"
	"time"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
)

// Note: LoanService implementation is in loan_service.go
// Note: OverdueSweeper implementation is in sweeper_service.go

// LoanService defines the circulation operations exposed to the API layer
type LoanService interface {
	Borrow(ctx context.Context, userID, bookID uint) (*BorrowOutput, error)
	Return(ctx context.Context, userID, loanID uint) (*ReturnOutput, error)
	GetActiveLoans(ctx context.Context, userID uint) ([]*models.LoanResponse, error)
	GetHistory(ctx context.Context, userID uint, offset, limit int) ([]*models.LoanResponse, int64, error)
}

// Notifier delivers a message to a user. Delivery is fire-and-forget:
// callers log a returned error and continue, never failing the operation
// that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID uint, message, notifType string) error
}

// EventPublisher publishes loan lifecycle events, best effort
type EventPublisher interface {
	Publish(ctx context.Context, event LoanEvent) error
}

// Loan event types
const (
	EventLoanBorrowed = "loan.borrowed"
	EventLoanReturned = "loan.returned"
	EventLoanOverdue  = "loan.overdue"
)

// LoanEvent is the payload published on loan lifecycle transitions
type LoanEvent struct {
	Type       string     `json:"type"`
	LoanID     uint       `json:"loan_id"`
	RefNo      string     `json:"ref_no"`
	UserID     uint       `json:"user_id"`
	BookID     uint       `json:"book_id"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Fine       float64    `json:"fine"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// BorrowOutput is the result of a successful borrow
type BorrowOutput struct {
	Loan    *models.LoanResponse `json:"loan"`
	DueDate time.Time            `json:"due_date"`
}

// ReturnOutput is the result of a successful return
type ReturnOutput struct {
	LoanID     uint      `json:"loan_id"`
	Fine       float64   `json:"fine"`
	ReturnDate time.Time `json:"return_date"`
}
