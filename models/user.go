package models

import "gorm.io/gorm"

// User represents a registered account in the system
type User struct {
	gorm.Model
	Email        string `gorm:"unique;not null;size:255" json:"email"`
	PasswordHash []byte `gorm:"not null" json:"-"`
	PasswordSalt []byte `gorm:"not null" json:"-"`

	Flashcards         []Flashcard         `gorm:"foreignKey:UserID" json:"-"`
	GenerationSessions []GenerationSession `gorm:"foreignKey:UserID" json:"-"`
}
