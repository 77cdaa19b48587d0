// Package seed populates an empty database with a starter catalogue and an
// optional administrator account.
package seed

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"readnest/internal/logging"
	"readnest/internal/model"
	"readnest/internal/service"
)

// Admin describes the administrator to create. An empty Email skips it.
type Admin struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Result reports what a run created.
type Result struct {
	Books        int
	AdminCreated bool
}

func strPtr(s string) *string { return &s }

// Books is the starter catalogue.
var Books = []model.Book{
	{Title: "Percy Jackson and the Lightning Thief", Author: "Rick Riordan", Genre: "Mythology", ISBN: "978-0786838653",
		Description: strPtr("A boy learns he is the son of Poseidon and goes after Zeus' stolen lightning bolt.")},
	{Title: "The Lost Hero", Author: "Rick Riordan", Genre: "Mythology", ISBN: "978-1423113393",
		Description: strPtr("Three new demigods wake up at Camp Half-Blood and set out to rescue Hera.")},
	{Title: "The Red Pyramid", Author: "Rick Riordan", Genre: "Mythology", ISBN: "978-1423113386",
		Description: strPtr("Carter and Sadie Kane discover their Egyptian magic after Set is set loose.")},
	{Title: "The Son of Neptune", Author: "Rick Riordan", Genre: "Mythology", ISBN: "978-1423140597",
		Description: strPtr("Percy, without his memories, joins Camp Jupiter on a quest to free Thanatos.")},
	{Title: "Magnus Chase and the Gods of Asgard: The Sword of Summer", Author: "Rick Riordan", Genre: "Mythology", ISBN: "978-1423160915",
		Description: strPtr("A Boston teen wakes up in Valhalla and must find the Sword of Summer.")},
	{Title: "Harry Potter and the Sorcerer's Stone", Author: "J.K. Rowling", Genre: "Fantasy", ISBN: "978-0590353427",
		Description: strPtr("An orphan learns he is a wizard and starts at Hogwarts.")},
	{Title: "Harry Potter and the Chamber of Secrets", Author: "J.K. Rowling", Genre: "Fantasy", ISBN: "978-0439064873",
		Description: strPtr("Harry's second year, and a monster loose inside the school.")},
	{Title: "Rebecca", Author: "Daphne du Maurier", Genre: "Gothic Fiction", ISBN: "978-0380778553",
		Description: strPtr("A new wife at Manderley lives in the shadow of the first Mrs de Winter.")},
	{Title: "Jamaica Inn", Author: "Daphne du Maurier", Genre: "Historical Fiction", ISBN: "978-0380725397",
		Description: strPtr("Mary Yellan uncovers the smugglers running her uncle's inn.")},
}

// Run inserts the catalogue when the books table is empty and creates admin
// when no user holds its email. Running it twice is harmless.
func Run(ctx context.Context, gormDB *gorm.DB, users service.UserService, admin Admin) (Result, error) {
	logger := logging.Component("seed")
	var res Result

	var count int64
	if err := gormDB.WithContext(ctx).Model(&model.Book{}).Count(&count).Error; err != nil {
		return res, fmt.Errorf("count books: %w", err)
	}
	if count == 0 {
		books := make([]model.Book, len(Books))
		copy(books, Books)
		for i := range books {
			books[i].IsAvailable = true
		}
		if err := gormDB.WithContext(ctx).Create(&books).Error; err != nil {
			return res, fmt.Errorf("insert books: %w", err)
		}
		res.Books = len(books)
		logger.Info().Int("books", res.Books).Msg("catalogue seeded")
	} else {
		logger.Info().Int64("books", count).Msg("catalogue already present, skipping")
	}

	if admin.Email == "" {
		return res, nil
	}
	_, err := users.CreateUser(ctx, service.RegisterInput{
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
		Email:     admin.Email,
		Password:  admin.Password,
	}, model.RoleAdmin)
	switch {
	case err == nil:
		res.AdminCreated = true
		logger.Info().Str("email", admin.Email).Msg("administrator created")
	case errors.Is(err, service.ErrUserAlreadyExists):
		logger.Info().Str("email", admin.Email).Msg("administrator already exists, skipping")
	default:
		return res, fmt.Errorf("create administrator: %w", err)
	}
	return res, nil
}
