package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"readnest/internal/cache"
	apperrors "readnest/internal/errors"
	"readnest/internal/logging"
	"readnest/internal/model"
	"readnest/internal/repository"
)

// BorrowInput describes a borrow request. Zero dates default to now and now+14 days.
type BorrowInput struct {
	BookID       uint
	BorrowedDate time.Time
	DueDate      time.Time
}

// BookLoanService handles borrowing and returning books.
type BookLoanService interface {
	BorrowBook(ctx context.Context, userID uint, in BorrowInput) (*model.BookLoan, error)
	ReturnBook(ctx context.Context, userID, loanID uint) (*model.BookLoan, error)
	ListLoans(ctx context.Context, filter repository.BookLoanFilter, page repository.Page) ([]model.BookLoan, repository.PageMeta, error)
}

type bookLoanService struct {
	repo   repository.BookLoanRepository
	cache  *cache.Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewBookLoanService creates a new book loan service.
func NewBookLoanService(repo repository.BookLoanRepository, cache *cache.Client) BookLoanService {
	return &bookLoanService{
		repo:   repo,
		cache:  cache,
		logger: logging.Component("loans"),
		now:    time.Now,
	}
}

// BorrowBook locks the book, checks it is on the shelf, records the loan and
// marks the book unavailable, all in one transaction.
func (s *bookLoanService) BorrowBook(ctx context.Context, userID uint, in BorrowInput) (*model.BookLoan, error) {
	borrowed := in.BorrowedDate.UTC()
	if in.BorrowedDate.IsZero() {
		borrowed = s.now().UTC()
	}
	due := in.DueDate.UTC()
	if in.DueDate.IsZero() {
		due = borrowed.Add(model.DefaultLoanPeriod)
	}
	if !due.After(borrowed) {
		return nil, apperrors.Validation("INVALID_DUE_DATE", "due date must be after the borrowed date")
	}

	loan := &model.BookLoan{
		UserID:       userID,
		BookID:       in.BookID,
		BorrowedDate: borrowed,
		DueDate:      due,
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.BookLoanRepository) error {
		book, err := tx.FindBookForUpdate(ctx, in.BookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBookNotFound
			}
			return apperrors.Fatal("lock book", err)
		}
		if !book.IsAvailable {
			return apperrors.ErrBookUnavailable
		}

		if err := tx.Create(ctx, loan); err != nil {
			return apperrors.Fatal("create loan", err)
		}
		if err := tx.SetBookAvailability(ctx, book.ID, false); err != nil {
			return apperrors.Fatal("mark book unavailable", err)
		}

		book.IsAvailable = false
		loan.Book = *book
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrBookUnavailable) {
			s.logger.Info().Uint("book_id", in.BookID).Uint("user_id", userID).Msg("borrow rejected: book not available")
		}
		return nil, err
	}

	_ = s.cache.Delete(ctx, bookCacheKey(in.BookID))
	s.logger.Info().Uint("book_id", in.BookID).Uint("user_id", userID).Uint("loan_id", loan.ID).Msg("book borrowed")
	return loan, nil
}

// ReturnBook closes an open loan owned by userID and puts the book back on the shelf.
func (s *bookLoanService) ReturnBook(ctx context.Context, userID, loanID uint) (*model.BookLoan, error) {
	now := s.now().UTC()
	var returned *model.BookLoan

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.BookLoanRepository) error {
		loan, err := tx.FindByIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrLoanNotFound
			}
			return apperrors.Fatal("lock loan", err)
		}
		// other members' loans are reported as missing
		if loan.UserID != userID {
			return apperrors.ErrLoanNotFound
		}
		if loan.Returned() {
			return apperrors.ErrLoanAlreadyReturned
		}

		if err := tx.MarkReturned(ctx, loan.ID, now); err != nil {
			return apperrors.Fatal("mark loan returned", err)
		}
		if err := tx.SetBookAvailability(ctx, loan.BookID, true); err != nil {
			return apperrors.Fatal("mark book available", err)
		}

		returned, err = tx.FindByID(ctx, loan.ID)
		if err != nil {
			return apperrors.Fatal("reload loan", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.cache.Delete(ctx, bookCacheKey(returned.BookID))
	s.logger.Info().Uint("loan_id", loanID).Uint("user_id", userID).Msg("book returned")
	return returned, nil
}

func (s *bookLoanService) ListLoans(ctx context.Context, filter repository.BookLoanFilter, page repository.Page) ([]model.BookLoan, repository.PageMeta, error) {
	page = page.Normalize()
	if filter.Now.IsZero() {
		filter.Now = s.now().UTC()
	}
	loans, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, repository.PageMeta{}, apperrors.Fatal("list loans", err)
	}
	return loans, repository.NewPageMeta(total, page), nil
}

func bookCacheKey(id uint) string {
	return fmt.Sprintf("book:%d", id)
}
