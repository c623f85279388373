package domain

import "errors"

// Circulation errors returned to the caller
var (
	ErrBookUnavailable   = errors.New("book not available for borrowing")
	ErrLoanLimitExceeded = errors.New("cannot borrow more than the allowed number of books at a time")
	ErrAlreadyBorrowed   = errors.New("book already borrowed by this user")
	ErrLoanNotFound      = errors.New("loan not found")
)

// Ledger-level errors. ErrNoCopyAvailable never leaves the loan service
// (mapped to ErrBookUnavailable); ErrBookNotFound on release is logged,
// not propagated, because the loan record stays the authoritative history.
var (
	ErrNoCopyAvailable = errors.New("no copy available")
	ErrBookNotFound    = errors.New("book not found")
)

// ErrStoreUnavailable wraps transient storage failures. The atomic
// borrow/return unit rolls back fully, so the caller may retry the whole
// operation.
var ErrStoreUnavailable = errors.New("store unavailable")
