package models

import (
	"time"

	"gorm.io/gorm"
)

// Flashcard types.
const (
	TypeAI     = "AI"
	TypeManual = "manual"
)

// FrontMaxLen and BackMaxLen bound flashcard text at all times.
const (
	FrontMaxLen = 200
	BackMaxLen  = 500
)

// Flashcard represents an individual flashcard owned by exactly one user
type Flashcard struct {
	gorm.Model
	Front string `gorm:"not null;size:200" json:"front"`
	Back  string `gorm:"not null;size:500" json:"back"`

	// Type is "AI" for accepted proposals, "manual" for hand-entered cards.
	Type            string `gorm:"not null;size:10" json:"type"`
	KnowledgeStatus string `gorm:"default:new;size:50" json:"knowledge_status"`

	LastReviewDate *time.Time `gorm:"default:null" json:"last_review_date"`

	UserID uint `gorm:"not null;index" json:"-"`
	User   User `gorm:"foreignKey:UserID" json:"-"`
}
