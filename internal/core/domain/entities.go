package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleUser    Role = "USER"
	RoleOfficer Role = "OFFICER"
	RoleAdmin   Role = "ADMIN"
)

// LoanStatus represents the lifecycle state of a loan
type LoanStatus string

const (
	StatusBorrowed LoanStatus = "borrowed"
	StatusOverdue  LoanStatus = "overdue"
	StatusReturned LoanStatus = "returned"
)

// IsActive reports whether the loan still holds a copy (not yet returned)
func (s LoanStatus) IsActive() bool {
	return s == StatusBorrowed || s == StatusOverdue
}

// Circulation policy defaults, overridable through config
const (
	DefaultLoanPeriodDays     = 14
	DefaultFineRatePerDay     = 2.0
	DefaultMaxConcurrentLoans = 5
)

// Book represents a catalog item in the domain layer.
// Metadata is owned by the catalog; circulation only moves AvailableCopies.
type Book struct {
	ID              uint
	Title           string
	Author          string
	ISBN            string
	Category        string
	TotalCopies     int
	AvailableCopies int
}

// Loan represents one copy of a book issued to one user
type Loan struct {
	ID         uint
	RefNo      string
	UserID     uint
	BookID     uint
	IssueDate  time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Fine       float64
	Status     LoanStatus
}

// EffectiveStatus returns the status a reader should see at instant now:
// a borrowed loan past its due date reads as overdue even before the
// sweeper has persisted the transition.
func (l *Loan) EffectiveStatus(now time.Time) LoanStatus {
	if l.Status == StatusBorrowed && now.After(l.DueDate) {
		return StatusOverdue
	}
	return l.Status
}
