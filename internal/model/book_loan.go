package model

import "time"

// DefaultLoanPeriod is used when a borrow request carries no due date.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// BookLoan records a member borrowing a book.
type BookLoan struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	UserID       uint       `json:"userId" gorm:"not null;index"`
	BookID       uint       `json:"bookId" gorm:"not null;index"`
	BorrowedDate time.Time  `json:"borrowedDate" gorm:"not null"`
	DueDate      time.Time  `json:"dueDate" gorm:"not null;index"`
	ReturnedDate *time.Time `json:"returnedDate,omitempty" gorm:"index"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Book Book `json:"book,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// Returned reports whether the book has been handed back.
func (l *BookLoan) Returned() bool {
	return l.ReturnedDate != nil
}

// Overdue reports whether the loan is still open past its due date.
func (l *BookLoan) Overdue(now time.Time) bool {
	return l.ReturnedDate == nil && l.DueDate.Before(now)
}
