package repositories

import (
	"context"
	"errors"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"gorm.io/gorm"
)

// GormInventoryRepository handles book copy counts
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// GetBook gets a book by ID
func (r *GormInventoryRepository) GetBook(ctx context.Context, bookID uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, bookID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ReserveCopy decrements available_copies by one. The guarded UPDATE
// serializes concurrent borrows per book row: with one copy left, exactly
// one caller matches the predicate and the count never goes negative.
func (r *GormInventoryRepository) ReserveCopy(ctx context.Context, bookID uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies > 0", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoCopyAvailable
	}
	return nil
}

// ReleaseCopy increments available_copies by one, capped at total_copies.
// Zero rows affected means the book left the catalog (or the ledger is
// already full); callers log and keep the loan return committed.
func (r *GormInventoryRepository) ReleaseCopy(ctx context.Context, bookID uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies < total_copies", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}
