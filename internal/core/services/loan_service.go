package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/repositories"
	"github.com/MilindPius2005/library-management-system/internal/config"
	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"github.com/google/uuid"
)

// CirculationService orchestrates borrow/return against the inventory
// ledger and the loan record store. Copy-count and loan-record mutations
// happen inside one unit of work; notifications and events go out only
// after it commits.
type CirculationService struct {
	loanRepo      repositories.LoanRepository
	inventoryRepo repositories.InventoryRepository
	uow           repositories.UnitOfWork
	notifier      Notifier
	events        EventPublisher
	policy        config.CirculationConfig
	now           func() time.Time
}

// NewCirculationService creates a new circulation service
func NewCirculationService(
	loanRepo repositories.LoanRepository,
	inventoryRepo repositories.InventoryRepository,
	uow repositories.UnitOfWork,
	notifier Notifier,
	events EventPublisher,
	policy config.CirculationConfig,
) *CirculationService {
	return &CirculationService{
		loanRepo:      loanRepo,
		inventoryRepo: inventoryRepo,
		uow:           uow,
		notifier:      notifier,
		events:        events,
		policy:        policy,
		now:           time.Now,
	}
}

// Borrow issues one copy of a book to the user for the configured loan
// period. Validations run twice: a fast path on plain reads, then again
// under row locks inside the atomic unit, which is the authoritative check
// against concurrent requests.
func (s *CirculationService) Borrow(ctx context.Context, userID, bookID uint) (*BorrowOutput, error) {
	book, err := s.inventoryRepo.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, domain.ErrBookUnavailable
		}
		return nil, asStoreErr(err)
	}
	if book.AvailableCopies <= 0 {
		return nil, domain.ErrBookUnavailable
	}

	count, err := s.loanRepo.CountActive(ctx, userID)
	if err != nil {
		return nil, asStoreErr(err)
	}
	if count >= int64(s.policy.MaxConcurrentLoans) {
		return nil, domain.ErrLoanLimitExceeded
	}

	held, err := s.loanRepo.HasActive(ctx, userID, bookID)
	if err != nil {
		return nil, asStoreErr(err)
	}
	if held {
		return nil, domain.ErrAlreadyBorrowed
	}

	now := s.now().UTC()
	dueDate := now.Add(time.Duration(s.policy.LoanPeriodDays) * 24 * time.Hour)

	loan := &models.Loan{
		RefNo:     uuid.New().String(),
		UserID:    userID,
		BookID:    bookID,
		IssueDate: now,
		DueDate:   dueDate,
		Status:    string(domain.StatusBorrowed),
	}

	err = s.uow.Execute(ctx, func(tx *repositories.TxRepos) error {
		lockedCount, err := tx.Loans.CountActiveForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if lockedCount >= int64(s.policy.MaxConcurrentLoans) {
			return domain.ErrLoanLimitExceeded
		}

		lockedHeld, err := tx.Loans.HasActiveForUpdate(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if lockedHeld {
			return domain.ErrAlreadyBorrowed
		}

		if err := tx.Inventory.ReserveCopy(ctx, bookID); err != nil {
			if errors.Is(err, domain.ErrNoCopyAvailable) {
				return domain.ErrBookUnavailable
			}
			return err
		}

		return tx.Loans.Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	loan.Book = book
	s.notify(ctx, userID,
		fmt.Sprintf("You have borrowed %q by %s. Due date: %s", book.Title, book.Author, dueDate.Format("2006-01-02")),
		models.NotifyTypeDueDate)
	s.publish(ctx, LoanEvent{
		Type:       EventLoanBorrowed,
		LoanID:     loan.ID,
		RefNo:      loan.RefNo,
		UserID:     userID,
		BookID:     bookID,
		DueDate:    dueDate,
		OccurredAt: now,
	})

	return &BorrowOutput{
		Loan:    loan.ToResponse(now),
		DueDate: dueDate,
	}, nil
}

// Return completes an active loan owned by the user, computing the fine
// from the elapsed time past the due date and releasing the copy back to
// the ledger. A release against a vanished catalog row is logged and
// swallowed: the loan itself stays the authoritative circulation record.
func (s *CirculationService) Return(ctx context.Context, userID, loanID uint) (*ReturnOutput, error) {
	now := s.now().UTC()

	var loan *models.Loan
	var fine float64

	err := s.uow.Execute(ctx, func(tx *repositories.TxRepos) error {
		l, err := tx.Loans.GetActiveForUpdate(ctx, loanID, userID)
		if err != nil {
			return err
		}

		fine = domain.ComputeFine(l.DueDate, now, s.policy.FineRatePerDay)

		if err := tx.Loans.Complete(ctx, l.ID, now, fine); err != nil {
			return err
		}

		if err := tx.Inventory.ReleaseCopy(ctx, l.BookID); err != nil {
			if errors.Is(err, domain.ErrBookNotFound) {
				log.Printf("⚠️ Inventory release skipped for loan %d (book %d): %v", l.ID, l.BookID, err)
			} else {
				return err
			}
		}

		loan = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, userID,
		fmt.Sprintf("You have returned loan %s. Fine: $%.2f", loan.RefNo, fine),
		models.NotifyTypeSystem)
	s.publish(ctx, LoanEvent{
		Type:       EventLoanReturned,
		LoanID:     loan.ID,
		RefNo:      loan.RefNo,
		UserID:     userID,
		BookID:     loan.BookID,
		DueDate:    loan.DueDate,
		ReturnDate: &now,
		Fine:       fine,
		OccurredAt: now,
	})

	return &ReturnOutput{
		LoanID:     loan.ID,
		Fine:       fine,
		ReturnDate: now,
	}, nil
}

// GetActiveLoans lists the user's borrowed/overdue loans, due soonest
// first. Lapsed loans the sweeper has not reached yet read as overdue.
func (s *CirculationService) GetActiveLoans(ctx context.Context, userID uint) ([]*models.LoanResponse, error) {
	loans, err := s.loanRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, asStoreErr(err)
	}

	now := s.now().UTC()
	out := make([]*models.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		out = append(out, loan.ToResponse(now))
	}
	return out, nil
}

// GetHistory lists all of the user's loans, newest issue first
func (s *CirculationService) GetHistory(ctx context.Context, userID uint, offset, limit int) ([]*models.LoanResponse, int64, error) {
	loans, total, err := s.loanRepo.ListHistory(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, asStoreErr(err)
	}

	now := s.now().UTC()
	out := make([]*models.LoanResponse, 0, len(loans))
	for _, loan := range loans {
		out = append(out, loan.ToResponse(now))
	}
	return out, total, nil
}

// notify delivers best-effort; failures are logged and swallowed
func (s *CirculationService) notify(ctx context.Context, userID uint, message, notifType string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message, notifType); err != nil {
		log.Printf("⚠️ Notification failed for user %d: %v", userID, err)
	}
}

// publish emits best-effort; failures are logged and swallowed
func (s *CirculationService) publish(ctx context.Context, event LoanEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Event publish failed (%s, loan %d): %v", event.Type, event.LoanID, err)
	}
}

// asStoreErr surfaces unexpected storage failures as ErrStoreUnavailable,
// leaving domain rejections untouched
func asStoreErr(err error) error {
	for _, sentinel := range []error{
		domain.ErrBookUnavailable,
		domain.ErrLoanLimitExceeded,
		domain.ErrAlreadyBorrowed,
		domain.ErrLoanNotFound,
		domain.ErrStoreUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
