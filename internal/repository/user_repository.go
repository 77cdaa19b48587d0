package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"readnest/internal/model"
)

// UserFilter narrows a user listing. Empty fields are ignored.
type UserFilter struct {
	FirstName   string
	LastName    string
	Email       string
	Role        model.Role
	SearchQuery string
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, page Page) ([]model.User, int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail matches case-insensitively; emails are stored lower-cased.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page Page) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if v := strings.TrimSpace(filter.FirstName); v != "" {
		q = q.Where("first_name = ?", v)
	}
	if v := strings.TrimSpace(filter.LastName); v != "" {
		q = q.Where("last_name = ?", v)
	}
	if v := strings.TrimSpace(filter.Email); v != "" {
		q = q.Where("email = ?", strings.ToLower(v))
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if v := strings.TrimSpace(filter.SearchQuery); v != "" {
		like := "%" + v + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR address LIKE ? OR contact_number LIKE ?",
			like, like, like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	if err := q.Order("id").Offset(page.Offset()).Limit(page.Size).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
