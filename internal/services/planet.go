package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/naming"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"github.com/wadtheplanet/wadtheplanet/internal/texture"
	"github.com/wadtheplanet/wadtheplanet/internal/visibility"
	"gorm.io/gorm"
)

// PlanetService implements planet CRUD inside owned solar systems. Deletion
// lives on ScoreService since it mutates derived scores.
type PlanetService struct {
	DB    *gorm.DB
	Names *naming.Validator
	Blobs storage.BlobStore
}

// Create creates a planet inside one of the requester's solar systems. Names
// are validated and unique per system. The texture is uploaded separately
// through SetTexture.
func (s *PlanetService) Create(requesterID, systemID uint, name string, visible bool) (*models.Planet, error) {
	if err := s.Names.Validate(name); err != nil {
		return nil, fmt.Errorf("%w: planet name: %s", ErrValidation, err)
	}

	planet := models.Planet{
		UserID:        requesterID,
		SolarSystemID: systemID,
		Name:          name,
		Visibility:    visible,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var system models.SolarSystem
		if err := tx.First(&system, systemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: solar system %d", ErrNotFound, systemID)
			}
			return err
		}
		if system.UserID != requesterID {
			return fmt.Errorf("%w: solar system %d", ErrForbidden, systemID)
		}

		var count int64
		if err := tx.Model(&models.Planet{}).
			Where("solar_system_id = ? AND name = ?", systemID, name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: planet %q", ErrDuplicate, name)
		}
		return tx.Create(&planet).Error
	})
	if err != nil {
		return nil, err
	}
	return &planet, nil
}

// GetByPath resolves /:username/:system/:planet for the requester, returning
// the planet and its comments. A planet is reachable only if both it and its
// solar system are visible to the requester; hidden records read as not
// found.
func (s *PlanetService) GetByPath(requesterID uint, username, systemName, planetName string) (*models.Planet, []models.Comment, error) {
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

	var planet models.Planet
	if err := s.DB.Where("solar_system_id = ? AND name = ?", system.ID, planetName).First(&planet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: planet %q", ErrNotFound, planetName)
		}
		return nil, nil, err
	}
	if !visibility.Visible(planet, requesterID) {
		return nil, nil, fmt.Errorf("%w: planet %q", ErrNotFound, planetName)
	}

	var comments []models.Comment
	if err := s.DB.Where("planet_id = ?", planet.ID).Order("created_at").Find(&comments).Error; err != nil {
		return nil, nil, err
	}

	return &planet, comments, nil
}

// UpdatePlanetInput carries optional planet changes.
type UpdatePlanetInput struct {
	Name       *string
	Visibility *bool
}

// Update applies owner-only changes to a planet. Renames go through the name
// validator and the per-system uniqueness rule.
func (s *PlanetService) Update(requesterID, planetID uint, in UpdatePlanetInput) (*models.Planet, error) {
	if in.Name != nil {
		if err := s.Names.Validate(*in.Name); err != nil {
			return nil, fmt.Errorf("%w: planet name: %s", ErrValidation, err)
		}
	}

	var planet models.Planet
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&planet, planetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: planet %d", ErrNotFound, planetID)
			}
			return err
		}
		if planet.UserID != requesterID {
			return fmt.Errorf("%w: planet %d", ErrForbidden, planetID)
		}

		updates := map[string]interface{}{}
		if in.Name != nil && *in.Name != planet.Name {
			var count int64
			if err := tx.Model(&models.Planet{}).
				Where("solar_system_id = ? AND name = ? AND id <> ?", planet.SolarSystemID, *in.Name, planetID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: planet %q", ErrDuplicate, *in.Name)
			}
			updates["name"] = *in.Name
		}
		if in.Visibility != nil {
			updates["visibility"] = *in.Visibility
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&planet).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &planet, nil
}

// SetTexture normalizes an uploaded texture bitmap and stores it for the
// planet. A decode failure is a validation error and leaves the previous
// texture in place.
func (s *PlanetService) SetTexture(ctx context.Context, requesterID, planetID uint, data []byte) error {
	var planet models.Planet
	if err := s.DB.First(&planet, planetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: planet %d", ErrNotFound, planetID)
		}
		return err
	}
	if planet.UserID != requesterID {
		return fmt.Errorf("%w: planet %d", ErrForbidden, planetID)
	}

	normalized, err := texture.Normalize(data)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	key := storage.TextureKey(planetID)
	if err := s.Blobs.Put(ctx, key, "image/jpeg", normalized); err != nil {
		return err
	}
	return s.DB.Model(&planet).Update("texture_key", key).Error
}
