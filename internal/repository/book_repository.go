package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"readnest/internal/model"
)

// BookFilter narrows a book listing. Nil or empty fields are ignored.
type BookFilter struct {
	Title       string
	Author      string
	Genre       string
	ISBN        string
	IsAvailable *bool
	SearchQuery string
}

// BookRepository defines book persistence operations.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	List(ctx context.Context, filter BookFilter, page Page) ([]model.Book, int64, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// Update saves every column of an existing book.
func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete removes a book and, through the foreign key, its loans.
func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Book{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a book by ID.
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns one page of books matching filter and the total match count.
func (r *bookRepository) List(ctx context.Context, filter BookFilter, page Page) ([]model.Book, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Book{})
	if v := strings.TrimSpace(filter.Title); v != "" {
		q = q.Where("title = ?", v)
	}
	if v := strings.TrimSpace(filter.Author); v != "" {
		q = q.Where("author = ?", v)
	}
	if v := strings.TrimSpace(filter.Genre); v != "" {
		q = q.Where("genre = ?", v)
	}
	if v := strings.TrimSpace(filter.ISBN); v != "" {
		q = q.Where("isbn = ?", v)
	}
	if filter.IsAvailable != nil {
		q = q.Where("is_available = ?", *filter.IsAvailable)
	}
	if v := strings.TrimSpace(filter.SearchQuery); v != "" {
		like := "%" + v + "%"
		q = q.Where("title LIKE ? OR author LIKE ? OR genre LIKE ? OR isbn LIKE ? OR description LIKE ?",
			like, like, like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []model.Book
	if err := q.Order("id").Offset(page.Offset()).Limit(page.Size).Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// findBookForUpdate locks the book row for the rest of the transaction.
func findBookForUpdate(tx *gorm.DB, id uint) (*model.Book, error) {
	var book model.Book
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}
