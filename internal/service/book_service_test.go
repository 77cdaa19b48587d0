package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "readnest/internal/errors"
	"readnest/internal/model"
)

func TestFormatISBN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9780786838653", "978-0786838653"},
		{" 9780786838653 ", "978-0786838653"},
		{"978-0786838653", "978-0786838653"},
		{"0-306-40615-2", "0-306-40615-2"},
		{"123", "123"},
		{"", ""},
		{"97807X", "97807X"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatISBN(tt.in))
		})
	}
}

func TestBookService_CreateBook(t *testing.T) {
	repo := new(MockBookRepository)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Book) bool {
		return b.ISBN == "978-0439064873" && b.IsAvailable && b.Title == "Harry Potter"
	})).Return(nil)

	svc := NewBookService(repo, nil)
	book, err := svc.CreateBook(context.Background(), BookInput{
		Title:  " Harry Potter ",
		Author: "J. K. Rowling",
		Genre:  "Fantasy",
		ISBN:   "9780439064873",
	})
	require.NoError(t, err)
	assert.Equal(t, "978-0439064873", book.ISBN)
	repo.AssertExpectations(t)
}

func TestBookService_GetBook_CachesReads(t *testing.T) {
	c, mr := newTestCache(t)
	repo := new(MockBookRepository)
	repo.On("FindByID", mock.Anything, uint(2)).Return(&model.Book{ID: 2, Title: "Dune", IsAvailable: true}, nil).Once()
	repo.On("FindByID", mock.Anything, uint(3)).Return(nil, gorm.ErrRecordNotFound)

	svc := NewBookService(repo, c)

	for i := 0; i < 3; i++ {
		book, err := svc.GetBook(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, "Dune", book.Title)
	}
	assert.True(t, mr.Exists("book:2"))

	_, err := svc.GetBook(context.Background(), 3)
	assert.Equal(t, apperrors.ErrBookNotFound, err)

	repo.AssertExpectations(t)
}

func TestBookService_UpdateBook(t *testing.T) {
	unavailable := false

	tests := []struct {
		name          string
		pathID        uint
		input         BookInput
		setupMock     func(*MockBookRepository)
		expectedError error
		wantAvailable bool
	}{
		{
			name:          "id mismatch",
			pathID:        1,
			input:         BookInput{ID: 5},
			setupMock:     func(*MockBookRepository) {},
			expectedError: apperrors.ErrIDMismatch,
		},
		{
			name:   "missing book",
			pathID: 1,
			input:  BookInput{ID: 1},
			setupMock: func(m *MockBookRepository) {
				m.On("FindByID", mock.Anything, uint(1)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrBookNotFound,
		},
		{
			name:   "availability defaults to true",
			pathID: 1,
			input:  BookInput{ID: 1, Title: "T", Author: "A", Genre: "G", ISBN: "1234"},
			setupMock: func(m *MockBookRepository) {
				m.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, IsAvailable: false}, nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.Book")).Return(nil)
			},
			wantAvailable: true,
		},
		{
			name:   "explicit unavailable",
			pathID: 1,
			input:  BookInput{ID: 1, Title: "T", Author: "A", Genre: "G", ISBN: "1234", IsAvailable: &unavailable},
			setupMock: func(m *MockBookRepository) {
				m.On("FindByID", mock.Anything, uint(1)).Return(&model.Book{ID: 1, IsAvailable: true}, nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.Book")).Return(nil)
			},
			wantAvailable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockBookRepository)
			tt.setupMock(repo)

			svc := NewBookService(repo, nil)
			book, err := svc.UpdateBook(context.Background(), tt.pathID, tt.input)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, book)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAvailable, book.IsAvailable)
				assert.Equal(t, "123-4", book.ISBN)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestBookService_DeleteBook_InvalidatesCache(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("book:4", `{"id":4}`))

	repo := new(MockBookRepository)
	repo.On("Delete", mock.Anything, uint(4)).Return(nil)
	repo.On("Delete", mock.Anything, uint(5)).Return(gorm.ErrRecordNotFound)

	svc := NewBookService(repo, c)
	require.NoError(t, svc.DeleteBook(context.Background(), 4))
	assert.False(t, mr.Exists("book:4"))

	assert.Equal(t, apperrors.ErrBookNotFound, svc.DeleteBook(context.Background(), 5))
}
