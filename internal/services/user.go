package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"

	"github.com/google/uuid"
	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/naming"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"github.com/wadtheplanet/wadtheplanet/internal/texture"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PasswordMinLen is the minimum accepted password length at registration.
const PasswordMinLen = 8

// UserService implements account registration, login verification and
// self-service profile management.
type UserService struct {
	DB    *gorm.DB
	Names *naming.Validator
	Blobs storage.BlobStore
}

// Register creates a new account. The username goes through the shared name
// validator, so it can never shadow a fixed route.
func (s *UserService) Register(username, email, password string) (*models.User, error) {
	if err := s.Names.Validate(username); err != nil {
		return nil, fmt.Errorf("%w: username: %s", ErrValidation, err)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < PasswordMinLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, PasswordMinLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Identifier:   uuid.NewString(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: username %q", ErrDuplicate, username)
		}
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: email %q", ErrDuplicate, email)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Registered user %s (%s)", user.Username, user.Identifier)
	return &user, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

// GetByUsername resolves an account by username.
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
		}
		return nil, err
	}
	return &user, nil
}

// GetByID resolves an account by primary key.
func (s *UserService) GetByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUserInput carries optional self-service profile changes.
type UpdateUserInput struct {
	Email    *string
	Password *string
}

// Update applies self-service profile changes to the requester's own account.
func (s *UserService) Update(userID uint, in UpdateUserInput) (*models.User, error) {
	updates := map[string]interface{}{}

	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
		}
		updates["email"] = *in.Email
	}
	if in.Password != nil {
		if len(*in.Password) < PasswordMinLen {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, PasswordMinLen)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}

	var user models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}
		if email, ok := updates["email"]; ok && email != user.Email {
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: email %q", ErrDuplicate, email)
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetAvatar normalizes and stores the account's avatar image.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, data []byte) error {
	normalized, err := texture.NormalizeAvatar(data)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	key := storage.AvatarKey(userID)
	if err := s.Blobs.Put(ctx, key, "image/jpeg", normalized); err != nil {
		return err
	}
	return s.DB.Model(&models.User{}).Where("id = ?", userID).Update("avatar_key", key).Error
}

// Delete removes the account and everything it owns or authored: the user's
// comments on other planets (adjusting those scores), then the user's solar
// systems with their planets and comments, then the user row. One
// transaction; a failure anywhere rolls the whole thing back.
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	var textureKeys []string

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, userID)
			}
			return err
		}

		if err := deleteCommentsByUser(tx, userID); err != nil {
			return err
		}

		var systems []models.SolarSystem
		if err := tx.Where("user_id = ?", userID).Find(&systems).Error; err != nil {
			return err
		}
		for _, system := range systems {
			keys, err := deleteSystemTx(tx, userID, system.ID)
			if err != nil {
				return err
			}
			textureKeys = append(textureKeys, keys...)
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return err
	}

	// Blob cleanup happens after commit; a failure here leaves an orphaned
	// object, not an inconsistent database.
	for _, key := range textureKeys {
		if err := s.Blobs.Delete(ctx, key); err != nil {
			log.Printf("Failed to delete blob %s: %v", key, err)
		}
	}
	if err := s.Blobs.Delete(ctx, storage.AvatarKey(userID)); err != nil {
		log.Printf("Failed to delete avatar for user %d: %v", userID, err)
	}
	return nil
}
