package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"readnest/internal/db/dbtest"
	apperrors "readnest/internal/errors"
	"readnest/internal/model"
	"readnest/internal/repository"
)

type loanFixture struct {
	db     *gorm.DB
	svc    *bookLoanService
	books  repository.BookRepository
	member *model.User
	other  *model.User
}

func newLoanFixture(t *testing.T) *loanFixture {
	t.Helper()
	gormDB := dbtest.Open(t)
	users := repository.NewUserRepository(gormDB)

	member := &model.User{FirstName: "M", LastName: "One", Email: "m1@x.com", Role: model.RoleLibraryMember, PasswordHash: "x"}
	other := &model.User{FirstName: "M", LastName: "Two", Email: "m2@x.com", Role: model.RoleLibraryMember, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), member))
	require.NoError(t, users.Create(context.Background(), other))

	svc := NewBookLoanService(repository.NewBookLoanRepository(gormDB), nil).(*bookLoanService)
	return &loanFixture{
		db:     gormDB,
		svc:    svc,
		books:  repository.NewBookRepository(gormDB),
		member: member,
		other:  other,
	}
}

func (f *loanFixture) addBook(t *testing.T, title string) *model.Book {
	t.Helper()
	book := &model.Book{Title: title, Author: "Author", Genre: "Fiction", ISBN: "978-0000000000", IsAvailable: true}
	require.NoError(t, f.books.Create(context.Background(), book))
	return book
}

func (f *loanFixture) available(t *testing.T, bookID uint) bool {
	t.Helper()
	book, err := f.books.FindByID(context.Background(), bookID)
	require.NoError(t, err)
	return book.IsAvailable
}

func TestBookLoanService_BorrowAndReturn(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	book := f.addBook(t, "Percy Jackson")

	loan, err := f.svc.BorrowBook(ctx, f.member.ID, BorrowInput{BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, now, loan.BorrowedDate)
	assert.Equal(t, now.Add(model.DefaultLoanPeriod), loan.DueDate)
	assert.False(t, f.available(t, book.ID))

	_, err = f.svc.BorrowBook(ctx, f.other.ID, BorrowInput{BookID: book.ID})
	assert.Equal(t, apperrors.ErrBookUnavailable, err)

	_, err = f.svc.ReturnBook(ctx, f.other.ID, loan.ID)
	assert.Equal(t, apperrors.ErrLoanNotFound, err)

	returned, err := f.svc.ReturnBook(ctx, f.member.ID, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedDate)
	assert.Equal(t, book.ID, returned.Book.ID)
	assert.True(t, f.available(t, book.ID))

	_, err = f.svc.ReturnBook(ctx, f.member.ID, loan.ID)
	assert.Equal(t, apperrors.ErrLoanAlreadyReturned, err)
}

func TestBookLoanService_BorrowValidation(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "Dune")

	_, err := f.svc.BorrowBook(ctx, f.member.ID, BorrowInput{BookID: 999})
	assert.Equal(t, apperrors.ErrBookNotFound, err)

	borrowed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.BorrowBook(ctx, f.member.ID, BorrowInput{BookID: book.ID, BorrowedDate: borrowed, DueDate: borrowed})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.True(t, f.available(t, book.ID))

	_, err = f.svc.ReturnBook(ctx, f.member.ID, 12345)
	assert.Equal(t, apperrors.ErrLoanNotFound, err)
}

func TestBookLoanService_ConcurrentBorrowHasOneWinner(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "Only Copy")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, u := range []*model.User{f.member, f.other, f.member, f.other} {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			if _, err := f.svc.BorrowBook(ctx, userID, BorrowInput{BookID: book.ID}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)

	var loans int64
	require.NoError(t, f.db.Model(&model.BookLoan{}).Where("book_id = ?", book.ID).Count(&loans).Error)
	assert.Equal(t, int64(1), loans)
}

func TestBookLoanService_ListLoans(t *testing.T) {
	f := newLoanFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	dune := f.addBook(t, "Dune")
	emma := f.addBook(t, "Emma")
	hobbit := f.addBook(t, "The Hobbit")

	// overdue: borrowed 30 days ago with the default period
	_, err := f.svc.BorrowBook(ctx, f.member.ID, BorrowInput{BookID: dune.ID, BorrowedDate: now.AddDate(0, 0, -30)})
	require.NoError(t, err)
	// due but not overdue
	_, err = f.svc.BorrowBook(ctx, f.member.ID, BorrowInput{BookID: emma.ID})
	require.NoError(t, err)
	// someone else's returned loan
	l, err := f.svc.BorrowBook(ctx, f.other.ID, BorrowInput{BookID: hobbit.ID})
	require.NoError(t, err)
	_, err = f.svc.ReturnBook(ctx, f.other.ID, l.ID)
	require.NoError(t, err)

	yes, no := true, false
	memberID := f.member.ID

	tests := []struct {
		name   string
		filter repository.BookLoanFilter
		want   int
	}{
		{"all", repository.BookLoanFilter{}, 3},
		{"by member", repository.BookLoanFilter{UserID: &memberID}, 2},
		{"still due", repository.BookLoanFilter{IsDue: &yes}, 2},
		{"returned", repository.BookLoanFilter{IsDue: &no}, 1},
		{"overdue", repository.BookLoanFilter{IsOverdue: &yes}, 1},
		{"not overdue", repository.BookLoanFilter{IsOverdue: &no}, 1},
		{"search by title", repository.BookLoanFilter{SearchQuery: "hob"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loans, meta, err := f.svc.ListLoans(ctx, tt.filter, repository.Page{})
			require.NoError(t, err)
			assert.Len(t, loans, tt.want)
			assert.Equal(t, int64(tt.want), meta.TotalItemCount)
			assert.Equal(t, repository.DefaultPageSize, meta.PageSize)
			for _, loan := range loans {
				assert.NotZero(t, loan.Book.ID, "book details are preloaded")
			}
		})
	}
}
