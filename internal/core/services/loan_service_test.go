package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/repositories"
	"github.com/MilindPius2005/library-management-system/internal/config"
	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// In-memory fakes
// ============================================================

type fakeInventoryRepo struct {
	mu    sync.Mutex
	books map[uint]*models.Book
}

func newFakeInventoryRepo(books ...*models.Book) *fakeInventoryRepo {
	f := &fakeInventoryRepo{books: make(map[uint]*models.Book)}
	for _, b := range books {
		f.books[b.ID] = b
	}
	return f
}

func (f *fakeInventoryRepo) GetBook(_ context.Context, bookID uint) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeInventoryRepo) ReserveCopy(_ context.Context, bookID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok || b.AvailableCopies <= 0 {
		return domain.ErrNoCopyAvailable
	}
	b.AvailableCopies--
	return nil
}

func (f *fakeInventoryRepo) ReleaseCopy(_ context.Context, bookID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok || b.AvailableCopies >= b.TotalCopies {
		return domain.ErrBookNotFound
	}
	b.AvailableCopies++
	return nil
}

func (f *fakeInventoryRepo) available(bookID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.books[bookID].AvailableCopies
}

type fakeLoanRepo struct {
	mu     sync.Mutex
	loans  map[uint]*models.Loan
	nextID uint

	createErr  error
	lapsedErr  error
	markErr    map[uint]error
	beforeMark func(loan *models.Loan)
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{loans: make(map[uint]*models.Loan)}
}

func (f *fakeLoanRepo) add(loan *models.Loan) *models.Loan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	loan.ID = f.nextID
	f.loans[loan.ID] = loan
	return loan
}

func (f *fakeLoanRepo) Create(_ context.Context, loan *models.Loan) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(loan)
	return nil
}

func (f *fakeLoanRepo) CountActive(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, l := range f.loans {
		if l.UserID == userID && l.IsActive() {
			count++
		}
	}
	return count, nil
}

func (f *fakeLoanRepo) HasActive(_ context.Context, userID, bookID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.UserID == userID && l.BookID == bookID && l.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLoanRepo) CountActiveForUpdate(ctx context.Context, userID uint) (int64, error) {
	return f.CountActive(ctx, userID)
}

func (f *fakeLoanRepo) HasActiveForUpdate(ctx context.Context, userID, bookID uint) (bool, error) {
	return f.HasActive(ctx, userID, bookID)
}

func (f *fakeLoanRepo) GetActiveForUpdate(_ context.Context, loanID, userID uint) (*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.loans[loanID]
	if !ok || l.UserID != userID || !l.IsActive() {
		return nil, domain.ErrLoanNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLoanRepo) Complete(_ context.Context, loanID uint, returnDate time.Time, fine float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.loans[loanID]
	if !ok || !l.IsActive() {
		return domain.ErrLoanNotFound
	}
	rd := returnDate
	l.Status = string(domain.StatusReturned)
	l.ReturnDate = &rd
	l.Fine = fine
	return nil
}

func (f *fakeLoanRepo) MarkOverdue(_ context.Context, loanID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.markErr[loanID]; err != nil {
		return false, err
	}
	l, ok := f.loans[loanID]
	if !ok {
		return false, nil
	}
	if f.beforeMark != nil {
		f.beforeMark(l)
	}
	if l.Status != string(domain.StatusBorrowed) {
		return false, nil
	}
	l.Status = string(domain.StatusOverdue)
	return true, nil
}

func (f *fakeLoanRepo) ListActive(_ context.Context, userID uint) ([]*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Loan
	for _, l := range f.loans {
		if l.UserID == userID && l.IsActive() {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (f *fakeLoanRepo) ListHistory(_ context.Context, userID uint, offset, limit int) ([]*models.Loan, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []*models.Loan
	for _, l := range f.loans {
		if l.UserID == userID {
			cp := *l
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].IssueDate.After(all[j].IssueDate) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeLoanRepo) ListLapsed(_ context.Context, now time.Time) ([]*models.Loan, error) {
	if f.lapsedErr != nil {
		return nil, f.lapsedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Loan
	for _, l := range f.loans {
		if l.Status == string(domain.StatusBorrowed) && l.DueDate.Before(now) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (f *fakeLoanRepo) get(loanID uint) *models.Loan {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.loans[loanID]
	return &cp
}

func (f *fakeLoanRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.loans)
}

// fakeUnitOfWork hands fn the same fakes the service reads from. Error
// classification mirrors the real unit of work: business rejections pass
// through, everything else reads as a store failure.
type fakeUnitOfWork struct {
	inventory *fakeInventoryRepo
	loans     *fakeLoanRepo
	execErr   error
}

func (u *fakeUnitOfWork) Execute(_ context.Context, fn func(tx *repositories.TxRepos) error) error {
	if u.execErr != nil {
		return u.execErr
	}
	err := fn(&repositories.TxRepos{Inventory: u.inventory, Loans: u.loans})
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		domain.ErrBookUnavailable,
		domain.ErrLoanLimitExceeded,
		domain.ErrAlreadyBorrowed,
		domain.ErrLoanNotFound,
		domain.ErrNoCopyAvailable,
		domain.ErrBookNotFound,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return errors.Join(domain.ErrStoreUnavailable, err)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	types    []string
	users    []uint
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, userID uint, message, notifType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.users = append(f.users, userID)
	f.messages = append(f.messages, message)
	f.types = append(f.types, notifType)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []LoanEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event LoanEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

// ============================================================
// Fixture
// ============================================================

type circulationFixture struct {
	service   *CirculationService
	inventory *fakeInventoryRepo
	loans     *fakeLoanRepo
	notifier  *fakeNotifier
	publisher *fakePublisher
	now       time.Time
}

func testPolicy() config.CirculationConfig {
	return config.CirculationConfig{
		LoanPeriodDays:     domain.DefaultLoanPeriodDays,
		FineRatePerDay:     domain.DefaultFineRatePerDay,
		MaxConcurrentLoans: domain.DefaultMaxConcurrentLoans,
	}
}

func newCirculationFixture(books ...*models.Book) *circulationFixture {
	inventory := newFakeInventoryRepo(books...)
	loans := newFakeLoanRepo()
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	uow := &fakeUnitOfWork{inventory: inventory, loans: loans}

	service := NewCirculationService(loans, inventory, uow, notifier, publisher, testPolicy())

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	return &circulationFixture{
		service:   service,
		inventory: inventory,
		loans:     loans,
		notifier:  notifier,
		publisher: publisher,
		now:       now,
	}
}

func testBook(id uint, copies int) *models.Book {
	return &models.Book{
		ID:              id,
		Title:           "The Go Programming Language",
		Author:          "Alan A. A. Donovan",
		ISBN:            "9780134190440",
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
}

// ============================================================
// Borrow
// ============================================================

func TestBorrowSuccess(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, fx.now.Add(14*24*time.Hour), out.DueDate)
	assert.Equal(t, string(domain.StatusBorrowed), out.Loan.Status)
	assert.NotEmpty(t, out.Loan.RefNo)
	assert.Equal(t, "The Go Programming Language", out.Loan.Title)

	// One copy reserved, one loan row created
	assert.Equal(t, 2, fx.inventory.available(1))
	assert.Equal(t, 1, fx.loans.count())

	// Side effects fired after commit
	require.Len(t, fx.notifier.messages, 1)
	assert.Equal(t, uint(7), fx.notifier.users[0])
	assert.Equal(t, models.NotifyTypeDueDate, fx.notifier.types[0])
	require.Len(t, fx.publisher.events, 1)
	assert.Equal(t, EventLoanBorrowed, fx.publisher.events[0].Type)
	assert.Equal(t, uint(1), fx.publisher.events[0].BookID)
}

func TestBorrowNoCopiesAvailable(t *testing.T) {
	book := testBook(1, 2)
	book.AvailableCopies = 0
	fx := newCirculationFixture(book)

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)
	assert.Nil(t, out)
	assert.Equal(t, 0, fx.loans.count())
	assert.Empty(t, fx.notifier.messages)
}

func TestBorrowUnknownBook(t *testing.T) {
	fx := newCirculationFixture()

	_, err := fx.service.Borrow(context.Background(), 7, 99)
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)
}

func TestBorrowLoanLimitExceeded(t *testing.T) {
	books := make([]*models.Book, 0, 6)
	for id := uint(1); id <= 6; id++ {
		books = append(books, testBook(id, 1))
	}
	fx := newCirculationFixture(books...)

	for id := uint(1); id <= 5; id++ {
		_, err := fx.service.Borrow(context.Background(), 7, id)
		require.NoError(t, err)
	}

	out, err := fx.service.Borrow(context.Background(), 7, 6)
	assert.ErrorIs(t, err, domain.ErrLoanLimitExceeded)
	assert.Nil(t, out)

	// Sixth book untouched, loan count unchanged
	assert.Equal(t, 1, fx.inventory.available(6))
	assert.Equal(t, 5, fx.loans.count())
}

func TestBorrowLimitFreedByReturn(t *testing.T) {
	books := make([]*models.Book, 0, 6)
	for id := uint(1); id <= 6; id++ {
		books = append(books, testBook(id, 1))
	}
	fx := newCirculationFixture(books...)

	for id := uint(1); id <= 5; id++ {
		_, err := fx.service.Borrow(context.Background(), 7, id)
		require.NoError(t, err)
	}

	_, err := fx.service.Return(context.Background(), 7, 1)
	require.NoError(t, err)

	_, err = fx.service.Borrow(context.Background(), 7, 6)
	assert.NoError(t, err)
}

func TestBorrowAlreadyBorrowed(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	_, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyBorrowed)
	assert.Nil(t, out)
	assert.Equal(t, 2, fx.inventory.available(1))
	assert.Equal(t, 1, fx.loans.count())
}

func TestBorrowLastCopyRace(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 1))

	// Two users race for the last copy; exactly one wins
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = fx.service.Borrow(context.Background(), uint(100+i), 1)
		}(i)
	}
	wg.Wait()

	var wins, rejections int
	for _, err := range results {
		if err == nil {
			wins++
		} else if errors.Is(err, domain.ErrBookUnavailable) {
			rejections++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, rejections)
	assert.Equal(t, 0, fx.inventory.available(1))
	assert.Equal(t, 1, fx.loans.count())
}

func TestBorrowStoreFailure(t *testing.T) {
	inventory := newFakeInventoryRepo(testBook(1, 3))
	loans := newFakeLoanRepo()
	uow := &fakeUnitOfWork{inventory: inventory, loans: loans, execErr: domain.ErrStoreUnavailable}

	service := NewCirculationService(loans, inventory, uow, &fakeNotifier{}, &fakePublisher{}, testPolicy())

	_, err := service.Borrow(context.Background(), 7, 1)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestBorrowNotifierFailureDoesNotFailBorrow(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))
	fx.notifier.err = errors.New("webhook down")
	fx.publisher.err = errors.New("broker down")

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, 1, fx.loans.count())
}

// ============================================================
// Return
// ============================================================

func TestReturnOnTimeNoFine(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)

	result, err := fx.service.Return(context.Background(), 7, out.Loan.ID)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Fine)
	assert.Equal(t, fx.now, result.ReturnDate)

	// Copy released, loan closed
	assert.Equal(t, 3, fx.inventory.available(1))
	stored := fx.loans.get(out.Loan.ID)
	assert.Equal(t, string(domain.StatusReturned), stored.Status)
	require.NotNil(t, stored.ReturnDate)
}

func TestReturnLateComputesFine(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)

	// 15 days and one hour past due: 16 chargeable days at $2/day
	returnTime := out.DueDate.Add(15*24*time.Hour + time.Hour)
	fx.service.now = func() time.Time { return returnTime }

	result, err := fx.service.Return(context.Background(), 7, out.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 32.0, result.Fine)
	assert.Equal(t, 32.0, fx.loans.get(out.Loan.ID).Fine)
}

func TestReturnUnknownLoan(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	_, err := fx.service.Return(context.Background(), 7, 42)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestReturnForeignLoan(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)

	// Another user cannot return it
	_, err = fx.service.Return(context.Background(), 8, out.Loan.ID)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	// Nothing changed
	assert.Equal(t, 2, fx.inventory.available(1))
	assert.Equal(t, string(domain.StatusBorrowed), fx.loans.get(out.Loan.ID).Status)
}

func TestReturnTwice(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)

	_, err = fx.service.Return(context.Background(), 7, out.Loan.ID)
	require.NoError(t, err)

	// Second return reads as not found; the copy is not released twice
	_, err = fx.service.Return(context.Background(), 7, out.Loan.ID)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
	assert.Equal(t, 3, fx.inventory.available(1))
}

func TestReturnOverdueLoan(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)

	// Sweeper already marked it overdue; return still works
	transitioned, err := fx.loans.MarkOverdue(context.Background(), out.Loan.ID)
	require.NoError(t, err)
	require.True(t, transitioned)

	fx.service.now = func() time.Time { return out.DueDate.Add(24 * time.Hour) }
	result, err := fx.service.Return(context.Background(), 7, out.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.Fine)
}

func TestReturnSurvivesMissingCatalogRow(t *testing.T) {
	fx := newCirculationFixture(testBook(1, 3))

	out, err := fx.service.Borrow(context.Background(), 7, 1)
	require.NoError(t, err)

	// Catalog row vanished between borrow and return
	fx.inventory.mu.Lock()
	delete(fx.inventory.books, 1)
	fx.inventory.mu.Unlock()

	result, err := fx.service.Return(context.Background(), 7, out.Loan.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusReturned), fx.loans.get(result.LoanID).Status)
}

// ============================================================
// Listings
// ============================================================

func TestGetActiveLoansOrderAndEffectiveStatus(t *testing.T) {
	fx := newCirculationFixture()

	// Seeded directly: one lapsed (not yet swept), one current
	fx.loans.add(&models.Loan{
		RefNo: "ref-late", UserID: 7, BookID: 1,
		IssueDate: fx.now.Add(-20 * 24 * time.Hour),
		DueDate:   fx.now.Add(-6 * 24 * time.Hour),
		Status:    string(domain.StatusBorrowed),
	})
	fx.loans.add(&models.Loan{
		RefNo: "ref-current", UserID: 7, BookID: 2,
		IssueDate: fx.now.Add(-24 * time.Hour),
		DueDate:   fx.now.Add(13 * 24 * time.Hour),
		Status:    string(domain.StatusBorrowed),
	})
	fx.loans.add(&models.Loan{
		RefNo: "ref-other-user", UserID: 8, BookID: 1,
		IssueDate: fx.now, DueDate: fx.now.Add(14 * 24 * time.Hour),
		Status: string(domain.StatusBorrowed),
	})

	loans, err := fx.service.GetActiveLoans(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, loans, 2)

	// Due soonest first; lapsed row reads overdue before the sweeper ran
	assert.Equal(t, "ref-late", loans[0].RefNo)
	assert.Equal(t, string(domain.StatusOverdue), loans[0].Status)
	assert.Equal(t, "ref-current", loans[1].RefNo)
	assert.Equal(t, string(domain.StatusBorrowed), loans[1].Status)
}

func TestGetHistoryPaginated(t *testing.T) {
	fx := newCirculationFixture()

	for i := 0; i < 5; i++ {
		status := string(domain.StatusReturned)
		if i == 4 {
			status = string(domain.StatusBorrowed)
		}
		fx.loans.add(&models.Loan{
			RefNo:     "ref",
			UserID:    7,
			BookID:    uint(i + 1),
			IssueDate: fx.now.Add(time.Duration(-i) * 24 * time.Hour),
			DueDate:   fx.now.Add(14 * 24 * time.Hour),
			Status:    status,
		})
	}

	page1, total, err := fx.service.GetHistory(context.Background(), 7, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 2)

	// Newest issue first
	assert.Equal(t, uint(1), page1[0].BookID)
	assert.Equal(t, uint(2), page1[1].BookID)

	page3, total, err := fx.service.GetHistory(context.Background(), 7, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page3, 1)
}
