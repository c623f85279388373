package models

import (
	"time"

	"github.com/MilindPius2005/library-management-system/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Catalog
// ============================================================

// Book represents the books table. Metadata columns are owned by the
// catalog; circulation only ever moves available_copies.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Author          string         `gorm:"size:255;not null" json:"author"`
	ISBN            string         `gorm:"size:20;uniqueIndex;not null" json:"isbn"`
	Category        string         `gorm:"size:100" json:"category"`
	TotalCopies     int            `gorm:"not null" json:"total_copies"`
	AvailableCopies int            `gorm:"not null" json:"available_copies"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// ToDomain converts the row to a domain book
func (b *Book) ToDomain() *domain.Book {
	return &domain.Book{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Category:        b.Category,
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
	}
}

// ============================================================
// Circulation
// ============================================================

// Loan represents the loans table. Rows are never deleted; returned loans
// stay as borrowing history.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RefNo      string     `gorm:"size:36;uniqueIndex;not null" json:"ref_no"`
	UserID     uint       `gorm:"not null;index:idx_loans_user_status" json:"user_id"`
	BookID     uint       `gorm:"not null;index" json:"book_id"`
	IssueDate  time.Time  `gorm:"not null" json:"issue_date"`
	DueDate    time.Time  `gorm:"not null;index" json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Fine       float64    `gorm:"type:decimal(10,2);not null;default:0" json:"fine"`
	Status     string     `gorm:"size:20;not null;index:idx_loans_user_status" json:"status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Book *Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// LoanResponse DTO
type LoanResponse struct {
	ID         uint       `json:"id"`
	RefNo      string     `json:"ref_no"`
	BookID     uint       `json:"book_id"`
	Title      string     `json:"title,omitempty"`
	Author     string     `json:"author,omitempty"`
	ISBN       string     `json:"isbn,omitempty"`
	Category   string     `json:"category,omitempty"`
	IssueDate  time.Time  `json:"issue_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Fine       float64    `json:"fine"`
	Status     string     `json:"status"`
}

// ToResponse builds the API shape; status is reported as of now so a
// lapsed loan reads overdue even before the sweeper persisted it.
func (l *Loan) ToResponse(now time.Time) *LoanResponse {
	resp := &LoanResponse{
		ID:         l.ID,
		RefNo:      l.RefNo,
		BookID:     l.BookID,
		IssueDate:  l.IssueDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Fine:       l.Fine,
		Status:     string(l.EffectiveStatus(now)),
	}

	if l.Book != nil {
		resp.Title = l.Book.Title
		resp.Author = l.Book.Author
		resp.ISBN = l.Book.ISBN
		resp.Category = l.Book.Category
	}

	return resp
}

// EffectiveStatus mirrors domain.Loan.EffectiveStatus for the persistence row
func (l *Loan) EffectiveStatus(now time.Time) domain.LoanStatus {
	status := domain.LoanStatus(l.Status)
	if status == domain.StatusBorrowed && now.After(l.DueDate) {
		return domain.StatusOverdue
	}
	return status
}

// IsActive reports whether the loan still holds a copy
func (l *Loan) IsActive() bool {
	return domain.LoanStatus(l.Status).IsActive()
}

// ============================================================
// Notifications
// ============================================================

// Notification types
const (
	NotifyTypeDueDate = "due_date"
	NotifyTypeOverdue = "overdue"
	NotifyTypeSystem  = "system"
)

// Notification represents the notifications table. Rows are written
// after the borrow/return unit commits, never inside it.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"size:20;not null;default:'system'" json:"type"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for circulation tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Book{},
		&Loan{},
		&Notification{},
	)
}
