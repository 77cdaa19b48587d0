package model

import "time"

// Book is a catalogue entry.
type Book struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null;index"`
	Author      string    `json:"author" gorm:"size:255;not null;index"`
	Genre       string    `json:"genre" gorm:"size:100;not null"`
	ISBN        string    `json:"isbn" gorm:"column:isbn;size:32;not null"`
	IsAvailable bool      `json:"isAvailable" gorm:"not null;default:true;index"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
