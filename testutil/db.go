// Package testutil provides shared test fixtures.
package testutil

import (
	"testing"

	"github.com/pwojcik/flashgen-api/auth"
	"github.com/pwojcik/flashgen-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens an isolated in-memory database with the full schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Flashcard{}, &models.GenerationSession{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestUser inserts a user with the given email and password.
func CreateTestUser(t *testing.T, db *gorm.DB, email, password string) *models.User {
	t.Helper()

	salt, err := auth.NewSalt()
	if err != nil {
		t.Fatalf("failed to generate salt: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: auth.HashPassword(password, salt),
		PasswordSalt: salt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}
