package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/naming"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"github.com/wadtheplanet/wadtheplanet/internal/visibility"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DescriptionMaxLen bounds the solar-system description length.
const DescriptionMaxLen = 500

// SystemService implements solar-system CRUD. All reads honor the visibility
// rule; all writes are ownership-checked before any mutation.
type SystemService struct {
	DB    *gorm.DB
	Names *naming.Validator
	Blobs storage.BlobStore
}

// Create creates a solar system owned by the requester. Names are validated
// and unique per owner.
func (s *SystemService) Create(requesterID uint, name, description string, visible bool) (*models.SolarSystem, error) {
	if err := s.Names.Validate(name); err != nil {
		return nil, fmt.Errorf("%w: system name: %s", ErrValidation, err)
	}
	if len(description) > DescriptionMaxLen {
		return nil, fmt.Errorf("%w: description must be at most %d characters", ErrValidation, DescriptionMaxLen)
	}

	system := models.SolarSystem{
		UserID:      requesterID,
		Name:        name,
		Description: description,
		Visibility:  visible,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SolarSystem{}).
			Where("user_id = ? AND name = ?", requesterID, name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: solar system %q", ErrDuplicate, name)
		}
		return tx.Create(&system).Error
	})
	if err != nil {
		return nil, err
	}
	return &system, nil
}

// GetByPath resolves /:username/:system for the requester. Hidden systems are
// reported as not found rather than forbidden, so their existence does not
// leak. The returned planets are visibility-filtered.
func (s *SystemService) GetByPath(requesterID uint, username, systemName string) (*models.SolarSystem, []models.Planet, error) {
	var owner models.User
	if err := s.DB.Where("username = ?", username).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
		}
		return nil, nil, err
	}

	var system models.SolarSystem
	if err := s.DB.Where("user_id = ? AND name = ?", owner.ID, systemName).First(&system).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: solar system %q", ErrNotFound, systemName)
		}
		return nil, nil, err
	}
	if !visibility.Visible(system, requesterID) {
		return nil, nil, fmt.Errorf("%w: solar system %q", ErrNotFound, systemName)
	}

	var planets []models.Planet
	if err := s.DB.Scopes(visibility.Scope(requesterID)).
		Where("solar_system_id = ?", system.ID).
		Order("name").
		Find(&planets).Error; err != nil {
		return nil, nil, err
	}

	return &system, planets, nil
}

// ListForAccount resolves /:username/ for the requester: the account and its
// visibility-filtered solar systems.
func (s *SystemService) ListForAccount(requesterID uint, username string) (*models.User, []models.SolarSystem, error) {
	var owner models.User
	if err := s.DB.Where("username = ?", username).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
		}
		return nil, nil, err
	}

	var systems []models.SolarSystem
	if err := s.DB.Scopes(visibility.Scope(requesterID)).
		Where("user_id = ?", owner.ID).
		Order("name").
		Find(&systems).Error; err != nil {
		return nil, nil, err
	}

	return &owner, systems, nil
}

// UpdateSystemInput carries optional solar-system changes.
type UpdateSystemInput struct {
	Name        *string
	Description *string
	Visibility  *bool
}

// Update applies owner-only changes to a solar system. Renames go through the
// name validator and the per-owner uniqueness rule.
func (s *SystemService) Update(requesterID, systemID uint, in UpdateSystemInput) (*models.SolarSystem, error) {
	if in.Name != nil {
		if err := s.Names.Validate(*in.Name); err != nil {
			return nil, fmt.Errorf("%w: system name: %s", ErrValidation, err)
		}
	}
	if in.Description != nil && len(*in.Description) > DescriptionMaxLen {
		return nil, fmt.Errorf("%w: description must be at most %d characters", ErrValidation, DescriptionMaxLen)
	}

	var system models.SolarSystem
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&system, systemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: solar system %d", ErrNotFound, systemID)
			}
			return err
		}
		if system.UserID != requesterID {
			return fmt.Errorf("%w: solar system %d", ErrForbidden, systemID)
		}

		updates := map[string]interface{}{}
		if in.Name != nil && *in.Name != system.Name {
			var count int64
			if err := tx.Model(&models.SolarSystem{}).
				Where("user_id = ? AND name = ? AND id <> ?", requesterID, *in.Name, systemID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: solar system %q", ErrDuplicate, *in.Name)
			}
			updates["name"] = *in.Name
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Visibility != nil {
			updates["visibility"] = *in.Visibility
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&system).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &system, nil
}

// Delete removes a solar system with its planets and their comments. Owner
// only, one transaction. Texture blobs are cleaned up after commit.
func (s *SystemService) Delete(ctx context.Context, requesterID, systemID uint) error {
	var textureKeys []string

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		keys, err := deleteSystemTx(tx, requesterID, systemID)
		textureKeys = keys
		return err
	})
	if err != nil {
		return err
	}

	for _, key := range textureKeys {
		if err := s.Blobs.Delete(ctx, key); err != nil {
			log.Printf("Failed to delete blob %s: %v", key, err)
		}
	}
	return nil
}

// deleteSystemTx removes a solar system, its planets and their comments
// inside an existing transaction, returning the texture keys of the removed
// planets for post-commit blob cleanup.
func deleteSystemTx(tx *gorm.DB, requesterID, systemID uint) ([]string, error) {
	var system models.SolarSystem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&system, systemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: solar system %d", ErrNotFound, systemID)
		}
		return nil, err
	}
	if system.UserID != requesterID {
		return nil, fmt.Errorf("%w: solar system %d", ErrForbidden, systemID)
	}

	var planets []models.Planet
	if err := tx.Where("solar_system_id = ?", systemID).Find(&planets).Error; err != nil {
		return nil, err
	}
	var textureKeys []string
	planetIDs := make([]uint, 0, len(planets))
	for _, planet := range planets {
		planetIDs = append(planetIDs, planet.ID)
		if planet.TextureKey != "" {
			textureKeys = append(textureKeys, planet.TextureKey)
		}
	}

	if len(planetIDs) > 0 {
		if err := tx.Where("planet_id IN ?", planetIDs).Delete(&models.Comment{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("solar_system_id = ?", systemID).Delete(&models.Planet{}).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Delete(&system).Error; err != nil {
		return nil, err
	}

	return textureKeys, nil
}
