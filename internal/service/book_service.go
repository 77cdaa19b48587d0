package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"readnest/internal/cache"
	apperrors "readnest/internal/errors"
	"readnest/internal/model"
	"readnest/internal/repository"
)

const bookCacheTTL = 5 * time.Minute

// BookInput carries the editable fields of a book.
type BookInput struct {
	ID          uint
	Title       string
	Author      string
	Genre       string
	ISBN        string
	Description *string
	IsAvailable *bool
}

// BookService manages the catalogue.
type BookService interface {
	CreateBook(ctx context.Context, in BookInput) (*model.Book, error)
	GetBook(ctx context.Context, id uint) (*model.Book, error)
	ListBooks(ctx context.Context, filter repository.BookFilter, page repository.Page) ([]model.Book, repository.PageMeta, error)
	UpdateBook(ctx context.Context, id uint, in BookInput) (*model.Book, error)
	DeleteBook(ctx context.Context, id uint) error
}

type bookService struct {
	repo  repository.BookRepository
	cache *cache.Client
}

// NewBookService creates a new book service.
func NewBookService(repo repository.BookRepository, cache *cache.Client) BookService {
	return &bookService{repo: repo, cache: cache}
}

func (s *bookService) cacheKey(id uint) string {
	return bookCacheKey(id)
}

func (s *bookService) CreateBook(ctx context.Context, in BookInput) (*model.Book, error) {
	book := &model.Book{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Genre:       strings.TrimSpace(in.Genre),
		ISBN:        FormatISBN(in.ISBN),
		Description: in.Description,
		IsAvailable: true,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, apperrors.Fatal("create book", err)
	}
	return book, nil
}

func (s *bookService) GetBook(ctx context.Context, id uint) (*model.Book, error) {
	var cached model.Book
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, apperrors.Fatal("find book", err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), book, bookCacheTTL)
	return book, nil
}

func (s *bookService) ListBooks(ctx context.Context, filter repository.BookFilter, page repository.Page) ([]model.Book, repository.PageMeta, error) {
	page = page.Normalize()
	books, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, repository.PageMeta{}, apperrors.Fatal("list books", err)
	}
	return books, repository.NewPageMeta(total, page), nil
}

// UpdateBook replaces a book's fields. A missing IsAvailable resets the book to available.
func (s *bookService) UpdateBook(ctx context.Context, id uint, in BookInput) (*model.Book, error) {
	if in.ID != id {
		return nil, apperrors.ErrIDMismatch
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, apperrors.Fatal("find book", err)
	}

	book.Title = strings.TrimSpace(in.Title)
	book.Author = strings.TrimSpace(in.Author)
	book.Genre = strings.TrimSpace(in.Genre)
	book.ISBN = FormatISBN(in.ISBN)
	book.Description = in.Description
	book.IsAvailable = in.IsAvailable == nil || *in.IsAvailable

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, apperrors.Fatal("update book", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return book, nil
}

func (s *bookService) DeleteBook(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBookNotFound
		}
		return apperrors.Fatal("delete book", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// FormatISBN hyphenates an all-digit ISBN after its three-digit prefix.
// Anything else is returned trimmed but otherwise untouched.
func FormatISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	if len(isbn) <= 3 {
		return isbn
	}
	for _, r := range isbn {
		if r < '0' || r > '9' {
			return isbn
		}
	}
	return isbn[:3] + "-" + isbn[3:]
}
