package models

import "gorm.io/gorm"

// GenerationSession records one text-to-flashcards AI invocation, its duration
// and the eventual accept/edit/reject tally. One row per generation request.
type GenerationSession struct {
	gorm.Model
	PublicID string `gorm:"size:100;uniqueIndex" json:"generation_id"`
	UserID   uint   `gorm:"not null;index" json:"-"`
	User     User   `gorm:"foreignKey:UserID" json:"-"`

	// SessionDuration is an ISO-8601 duration string, "PT0S" until the final
	// tally is recorded.
	SessionDuration string `gorm:"not null;default:PT0S;size:32" json:"session_duration"`

	GeneratedCount int `gorm:"default:0" json:"generated_count"`
	AcceptedCount  int `gorm:"default:0" json:"accepted_count"`
	EditedCount    int `gorm:"default:0" json:"edited_count"`
	RejectedCount  int `gorm:"default:0" json:"rejected_count"`
}
