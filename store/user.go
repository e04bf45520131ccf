package store

import (
	"context"
	"errors"
	"strings"

	"github.com/pwojcik/flashgen-api/errs"
	"github.com/pwojcik/flashgen-api/models"
	"gorm.io/gorm"
)

// UserStore provides account persistence for the auth handlers.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new account. A taken email reports ErrAlreadyExists.
func (s *UserStore) Create(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*models.User, error) {
	user := models.User{
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		PasswordSalt: passwordSalt,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "UNIQUE") {
			return nil, errs.ErrAlreadyExists
		}
		return nil, &errs.PersistenceError{Op: "create user", Err: err}
	}
	return &user, nil
}

// FindByEmail looks up an account by email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, &errs.PersistenceError{Op: "find user", Err: err}
	}
	return &user, nil
}

// FindByID looks up an account by primary key.
func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, &errs.PersistenceError{Op: "find user", Err: err}
	}
	return &user, nil
}

// UpdatePassword replaces the stored hash and salt for the user.
func (s *UserStore) UpdatePassword(ctx context.Context, id uint, passwordHash, passwordSalt []byte) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"password_salt": passwordSalt,
		})
	if result.Error != nil {
		return &errs.PersistenceError{Op: "update password", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
