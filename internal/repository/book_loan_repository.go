package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"readnest/internal/model"
)

// BookLoanFilter narrows a loan listing. Nil or empty fields are ignored.
type BookLoanFilter struct {
	UserID      *uint
	BookID      *uint
	IsDue       *bool // true: still out, false: returned
	IsOverdue   *bool // true: out and past due, false: out and not yet due
	SearchQuery string
	Now         time.Time
}

// BookLoanRepository defines loan persistence operations.
type BookLoanRepository interface {
	Create(ctx context.Context, loan *model.BookLoan) error
	FindByID(ctx context.Context, id uint) (*model.BookLoan, error)
	List(ctx context.Context, filter BookLoanFilter, page Page) ([]model.BookLoan, int64, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookLoanRepository) error) error
	FindByIDForUpdate(ctx context.Context, id uint) (*model.BookLoan, error)
	FindBookForUpdate(ctx context.Context, bookID uint) (*model.Book, error)
	MarkReturned(ctx context.Context, id uint, at time.Time) error
	SetBookAvailability(ctx context.Context, bookID uint, available bool) error
}

type bookLoanRepository struct {
	db *gorm.DB
}

// NewBookLoanRepository creates a new book loan repository.
func NewBookLoanRepository(db *gorm.DB) BookLoanRepository {
	return &bookLoanRepository{db: db}
}

// Create creates a new loan.
func (r *bookLoanRepository) Create(ctx context.Context, loan *model.BookLoan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(loan).Error
}

// FindByID finds a loan by ID with its book.
func (r *bookLoanRepository) FindByID(ctx context.Context, id uint) (*model.BookLoan, error) {
	var loan model.BookLoan
	if err := r.db.WithContext(ctx).Preload("Book").First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// List returns one page of loans with book details and the total match count.
func (r *bookLoanRepository) List(ctx context.Context, filter BookLoanFilter, page Page) ([]model.BookLoan, int64, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	q := r.db.WithContext(ctx).Model(&model.BookLoan{})
	if filter.UserID != nil {
		q = q.Where("book_loans.user_id = ?", *filter.UserID)
	}
	if filter.BookID != nil {
		q = q.Where("book_loans.book_id = ?", *filter.BookID)
	}
	if filter.IsDue != nil {
		if *filter.IsDue {
			q = q.Where("book_loans.returned_date IS NULL")
		} else {
			q = q.Where("book_loans.returned_date IS NOT NULL")
		}
	}
	if filter.IsOverdue != nil {
		if *filter.IsOverdue {
			q = q.Where("book_loans.returned_date IS NULL AND book_loans.due_date < ?", now)
		} else {
			q = q.Where("book_loans.returned_date IS NULL AND book_loans.due_date > ?", now)
		}
	}
	if v := strings.TrimSpace(filter.SearchQuery); v != "" {
		q = q.Joins("JOIN books ON books.id = book_loans.book_id").
			Where("books.title LIKE ?", "%"+v+"%")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loans []model.BookLoan
	if err := q.Preload("Book").Order("book_loans.id").
		Offset(page.Offset()).Limit(page.Size).Find(&loans).Error; err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// WithTransaction executes a function within a database transaction.
func (r *bookLoanRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo BookLoanRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &bookLoanRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

// FindByIDForUpdate finds a loan by ID with row-level lock for update.
func (r *bookLoanRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.BookLoan, error) {
	var loan model.BookLoan
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindBookForUpdate locks the loaned book's row.
func (r *bookLoanRepository) FindBookForUpdate(ctx context.Context, bookID uint) (*model.Book, error) {
	return findBookForUpdate(r.db.WithContext(ctx), bookID)
}

// MarkReturned stamps the return date on a loan.
func (r *bookLoanRepository) MarkReturned(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.BookLoan{}).
		Where("id = ?", id).
		Update("returned_date", at).Error
}

// SetBookAvailability updates the availability flag of a book.
func (r *bookLoanRepository) SetBookAvailability(ctx context.Context, bookID uint, available bool) error {
	return r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ?", bookID).
		Update("is_available", available).Error
}
