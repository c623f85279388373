package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"gorm.io/gorm"
)

// GormUnitOfWork runs inventory and loan mutations inside one database
// transaction: both commit or both roll back.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a new unit of work over the given connection
func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute opens a transaction, hands fn repositories bound to it, and
// commits when fn returns nil. Business rejections pass through untouched;
// anything else reads as a transient storage failure after full rollback,
// so the caller may retry the whole operation.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(tx *TxRepos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TxRepos{
			Inventory: NewInventoryRepository(tx),
			Loans:     NewLoanRepository(tx),
		})
	})
	if err == nil {
		return nil
	}
	if isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func isDomainErr(err error) bool {
	for _, sentinel := range []error{
		domain.ErrBookUnavailable,
		domain.ErrLoanLimitExceeded,
		domain.ErrAlreadyBorrowed,
		domain.ErrLoanNotFound,
		domain.ErrNoCopyAvailable,
		domain.ErrBookNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
