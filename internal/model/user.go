package model

import "time"

// User represents a library member or administrator.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FirstName     string    `json:"firstName" gorm:"size:100;not null"`
	LastName      string    `json:"lastName" gorm:"size:100;not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;size:255;not null"` // stored lower-cased
	Address       *string   `json:"address,omitempty" gorm:"size:300"`
	ContactNumber *string   `json:"contactNumber,omitempty" gorm:"size:15"`
	Role          Role      `json:"role" gorm:"size:20;not null;default:'LibraryMember'"`
	PasswordHash  string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
