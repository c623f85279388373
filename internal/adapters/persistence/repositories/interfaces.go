package repositories

import (
	"context"
	"time"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
)

// InventoryRepository defines the inventory ledger interface.
// ReserveCopy and ReleaseCopy mutate available_copies by exactly one and
// must run inside the same unit of work as the matching loan mutation.
type InventoryRepository interface {
	GetBook(ctx context.Context, bookID uint) (*models.Book, error)
	ReserveCopy(ctx context.Context, bookID uint) error
	ReleaseCopy(ctx context.Context, bookID uint) error
}

// LoanRepository defines the loan record store interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error

	// Plain reads for fast-path validation outside the unit of work
	CountActive(ctx context.Context, userID uint) (int64, error)
	HasActive(ctx context.Context, userID, bookID uint) (bool, error)

	// Row-locked reads, authoritative inside the unit of work
	CountActiveForUpdate(ctx context.Context, userID uint) (int64, error)
	HasActiveForUpdate(ctx context.Context, userID, bookID uint) (bool, error)
	GetActiveForUpdate(ctx context.Context, loanID, userID uint) (*models.Loan, error)

	Complete(ctx context.Context, loanID uint, returnDate time.Time, fine float64) error

	// MarkOverdue transitions borrowed -> overdue; reports false without
	// error when the loan already left borrowed status (sweeper racing a
	// concurrent return).
	MarkOverdue(ctx context.Context, loanID uint) (bool, error)

	ListActive(ctx context.Context, userID uint) ([]*models.Loan, error)
	ListHistory(ctx context.Context, userID uint, offset, limit int) ([]*models.Loan, int64, error)
	ListLapsed(ctx context.Context, now time.Time) ([]*models.Loan, error)
}

// NotificationRepository persists user notification rows
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Notification, int64, error)
}

// TxRepos bundles the repositories bound to one open transaction
type TxRepos struct {
	Inventory InventoryRepository
	Loans     LoanRepository
}

// UnitOfWork groups inventory and loan mutations into one atomic unit:
// both take effect or neither does. Storage-engine failures surface as
// domain.ErrStoreUnavailable after a full rollback.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(tx *TxRepos) error) error
}
