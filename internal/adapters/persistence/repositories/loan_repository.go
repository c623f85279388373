package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var activeStatuses = []string{string(domain.StatusBorrowed), string(domain.StatusOverdue)}

// GormLoanRepository handles loan data access
type GormLoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

// Create inserts a new loan record
func (r *GormLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// CountActive counts borrowed/overdue loans held by the user
func (r *GormLoanRepository) CountActive(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("user_id = ? AND status IN ?", userID, activeStatuses).
		Count(&count).Error
	return count, err
}

// HasActive reports whether the user already holds this book
func (r *GormLoanRepository) HasActive(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, activeStatuses).
		Count(&count).Error
	return count > 0, err
}

// CountActiveForUpdate counts the user's active loans under row locks,
// so a concurrent borrow by the same user blocks until commit
func (r *GormLoanRepository) CountActiveForUpdate(ctx context.Context, userID uint) (int64, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("user_id = ? AND status IN ?", userID, activeStatuses).
		Find(&loans).Error
	return int64(len(loans)), err
}

// HasActiveForUpdate checks the (user, book) pair under row locks
func (r *GormLoanRepository) HasActiveForUpdate(ctx context.Context, userID, bookID uint) (bool, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, activeStatuses).
		Limit(1).
		Find(&loans).Error
	return len(loans) > 0, err
}

// GetActiveForUpdate locks and returns an active loan owned by the user.
// Missing, foreign, or already-returned loans all read as not found.
func (r *GormLoanRepository) GetActiveForUpdate(ctx context.Context, loanID, userID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ? AND status IN ?", loanID, userID, activeStatuses).
		First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// Complete transitions a loan to returned with its computed fine
func (r *GormLoanRepository) Complete(ctx context.Context, loanID uint, returnDate time.Time, fine float64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status IN ?", loanID, activeStatuses).
		Updates(map[string]interface{}{
			"status":      string(domain.StatusReturned),
			"return_date": returnDate,
			"fine":        fine,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// MarkOverdue transitions borrowed -> overdue. The status predicate makes
// it a no-op against loans a concurrent return already completed; returned
// is never overwritten.
func (r *GormLoanRepository) MarkOverdue(ctx context.Context, loanID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", loanID, string(domain.StatusBorrowed)).
		UpdateColumn("status", string(domain.StatusOverdue))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListActive lists the user's active loans, due soonest first
func (r *GormLoanRepository) ListActive(ctx context.Context, userID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ? AND status IN ?", userID, activeStatuses).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// ListHistory lists all of the user's loans, newest issue first
func (r *GormLoanRepository) ListHistory(ctx context.Context, userID uint, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	r.db.WithContext(ctx).Model(&models.Loan{}).Where("user_id = ?", userID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("issue_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListLapsed lists borrowed loans whose due date passed before now
func (r *GormLoanRepository) ListLapsed(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("status = ? AND due_date < ?", string(domain.StatusBorrowed), now).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}
