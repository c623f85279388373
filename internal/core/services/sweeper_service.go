package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/repositories"
	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// OverdueSweeper periodically transitions lapsed borrowed loans to
// overdue and notifies the holders. Runs are idempotent: a second pass
// over the same data finds nothing left in borrowed status.
type OverdueSweeper struct {
	loanRepo repositories.LoanRepository
	notifier Notifier
	events   EventPublisher
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

// NewOverdueSweeper creates a new overdue sweeper
func NewOverdueSweeper(
	loanRepo repositories.LoanRepository,
	notifier Notifier,
	events EventPublisher,
	schedule string,
) *OverdueSweeper {
	return &OverdueSweeper{
		loanRepo: loanRepo,
		notifier: notifier,
		events:   events,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start schedules the sweep according to the configured cron spec
func (s *OverdueSweeper) Start() error {
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			// Failed cycle; the next scheduled run retries the whole scan
			log.Printf("❌ Overdue sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron = c
	c.Start()
	log.Printf("🚀 OverdueSweeper started [schedule: %s]", s.schedule)
	return nil
}

// Stop halts the schedule; an in-flight sweep finishes its batch
func (s *OverdueSweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Println("🛑 OverdueSweeper stopped")
}

// RunOnce performs a single sweep and returns how many loans it
// transitioned. A failure to even query the overdue set aborts the cycle;
// per-loan notification failures are logged and skipped so one bad
// delivery never stalls the rest of the batch.
func (s *OverdueSweeper) RunOnce(ctx context.Context) (int, error) {
	now := s.now().UTC()

	lapsed, err := s.loanRepo.ListLapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	marked := 0
	for _, loan := range lapsed {
		transitioned, err := s.loanRepo.MarkOverdue(ctx, loan.ID)
		if err != nil {
			log.Printf("❌ Mark overdue failed for loan %d: %v", loan.ID, err)
			continue
		}
		if !transitioned {
			// A concurrent return (or earlier sweep) got there first
			continue
		}
		marked++

		title := "your book"
		if loan.Book != nil {
			title = fmt.Sprintf("%q", loan.Book.Title)
		}
		if s.notifier != nil {
			msg := fmt.Sprintf("Your loan of %s was due on %s and is now overdue. Please return it as soon as possible.",
				title, loan.DueDate.Format("2006-01-02"))
			if err := s.notifier.Notify(ctx, loan.UserID, msg, models.NotifyTypeOverdue); err != nil {
				log.Printf("⚠️ Overdue notification failed for loan %d: %v", loan.ID, err)
			}
		}

		if s.events != nil {
			event := LoanEvent{
				Type:       EventLoanOverdue,
				LoanID:     loan.ID,
				RefNo:      loan.RefNo,
				UserID:     loan.UserID,
				BookID:     loan.BookID,
				DueDate:    loan.DueDate,
				OccurredAt: now,
			}
			if err := s.events.Publish(ctx, event); err != nil {
				log.Printf("⚠️ Event publish failed (%s, loan %d): %v", event.Type, loan.ID, err)
			}
		}
	}

	if marked > 0 {
		log.Printf("⏰ Marked %d loans overdue", marked)
	}
	return marked, nil
}
