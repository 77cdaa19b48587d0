package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"gorm.io/gorm"

	"readnest/internal/auth"
	"readnest/internal/cache"
	apperrors "readnest/internal/errors"
	"readnest/internal/model"
	"readnest/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UpdateUserInput is a full profile replacement. Role is only honoured for admins.
type UpdateUserInput struct {
	ID            uint
	FirstName     string
	LastName      string
	Email         string
	Address       *string
	ContactNumber *string
	Role          *model.Role
}

// UserService exposes user management operations.
type UserService interface {
	CreateUser(ctx context.Context, in RegisterInput, role model.Role) (*model.User, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]model.User, repository.PageMeta, error)
	UpdateUser(ctx context.Context, id uint, in UpdateUserInput, asAdmin bool) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error
}

type userService struct {
	repo   repository.UserRepository
	hasher auth.PasswordHasher
	cache  *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, hasher auth.PasswordHasher, cache *cache.Client) UserService {
	return &userService{repo: repo, hasher: hasher, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// CreateUser stores a user with an explicit role. Used for seeding administrators.
func (s *userService) CreateUser(ctx context.Context, in RegisterInput, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("INVALID_ROLE", fmt.Sprintf("unknown role %q", role))
	}
	email := normalizeEmail(in.Email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, apperrors.ErrInvalidEmail
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperrors.Validation("PASSWORD_TOO_LONG", err.Error())
		}
		return nil, apperrors.Fatal("hash password", err)
	}

	user := &model.User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         email,
		Address:       in.Address,
		ContactNumber: in.ContactNumber,
		Role:          role,
		PasswordHash:  hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateUser
		}
		return nil, apperrors.Fatal("create user", err)
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Fatal("find user", err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]model.User, repository.PageMeta, error) {
	page = page.Normalize()
	users, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, repository.PageMeta{}, apperrors.Fatal("list users", err)
	}
	return users, repository.NewPageMeta(total, page), nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput, asAdmin bool) (*model.User, error) {
	if in.ID != id {
		return nil, apperrors.ErrIDMismatch
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Fatal("find user", err)
	}

	email := normalizeEmail(in.Email)
	if email != user.Email {
		if err := checkmail.ValidateFormat(email); err != nil {
			return nil, apperrors.ErrInvalidEmail
		}
		other, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != id:
			return nil, apperrors.ErrEmailTaken
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.Fatal("check email", err)
		}
		user.Email = email
	}

	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.Address = in.Address
	user.ContactNumber = in.ContactNumber
	if asAdmin && in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.Validation("INVALID_ROLE", fmt.Sprintf("unknown role %q", *in.Role))
		}
		user.Role = *in.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, apperrors.Fatal("update user", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.Fatal("delete user", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}
