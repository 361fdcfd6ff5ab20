package services

import (
	"errors"
	"fmt"

	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreService maintains the derived-score invariants:
//
//	planet.score == sum of ratings of the planet's comments
//	solar_system.score == sum of scores of the system's planets
//
// Every operation runs as one transaction with the parent planet and solar
// system rows locked FOR UPDATE, so concurrent upserts on the same planet
// serialize instead of losing updates.
type ScoreService struct {
	DB *gorm.DB
}

// UpsertComment creates or updates the single comment the user has on the
// planet and applies the rating delta to the planet and solar-system scores
// in the same transaction. Commenting on your own planet is allowed.
func (s *ScoreService) UpsertComment(userID, planetID uint, rating int, body string) (*models.Comment, error) {
	if rating < models.RatingMin || rating > models.RatingMax {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, models.RatingMin, models.RatingMax)
	}
	if len(body) > models.CommentMaxLen {
		return nil, fmt.Errorf("%w: comment must be at most %d characters", ErrValidation, models.CommentMaxLen)
	}

	var out models.Comment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		planet, system, err := lockPlanetAndSystem(tx, planetID)
		if err != nil {
			return err
		}

		oldRating := 0
		var existing models.Comment
		err = tx.Where("planet_id = ? AND user_id = ?", planetID, userID).First(&existing).Error
		switch {
		case err == nil:
			oldRating = existing.Rating
			existing.Rating = rating
			existing.Body = body
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			out = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = models.Comment{
				PlanetID: planetID,
				UserID:   userID,
				Body:     body,
				Rating:   rating,
			}
			if err := tx.Create(&out).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return applyScoreDelta(tx, planet, system, rating-oldRating)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes a comment and subtracts its rating from the planet
// and solar-system scores. The comment author and the planet owner may
// delete; anyone else is rejected before any write.
func (s *ScoreService) DeleteComment(requesterID, commentID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
			}
			return err
		}

		planet, system, err := lockPlanetAndSystem(tx, comment.PlanetID)
		if err != nil {
			return err
		}
		if requesterID != comment.UserID && requesterID != planet.UserID {
			return fmt.Errorf("%w: comment %d", ErrForbidden, commentID)
		}

		// The first read only located the planet. A concurrent upsert can
		// commit a new rating while we wait on the planet lock, so the rating
		// that gets subtracted must be re-read under the lock.
		if err := tx.First(&comment, commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
			}
			return err
		}

		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}
		return applyScoreDelta(tx, planet, system, -comment.Rating)
	})
}

// DeleteOwnComment removes the requester's comment on the planet, if any.
func (s *ScoreService) DeleteOwnComment(requesterID, planetID uint) error {
	var comment models.Comment
	err := s.DB.Where("planet_id = ? AND user_id = ?", planetID, requesterID).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no comment on planet %d", ErrNotFound, planetID)
		}
		return err
	}
	return s.DeleteComment(requesterID, comment.ID)
}

// deleteCommentsByUser removes every comment authored by the user, adjusting
// the affected planet and solar-system scores per comment. Used by account
// deletion before the user's own content is removed.
func deleteCommentsByUser(tx *gorm.DB, userID uint) error {
	var comments []models.Comment
	if err := tx.Where("user_id = ?", userID).Find(&comments).Error; err != nil {
		return err
	}
	for _, comment := range comments {
		planet, system, err := lockPlanetAndSystem(tx, comment.PlanetID)
		if err != nil {
			return err
		}
		// Re-read under the planet lock; the list read may carry ratings a
		// concurrent upsert has since replaced.
		var current models.Comment
		if err := tx.First(&current, comment.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if err := tx.Delete(&current).Error; err != nil {
			return err
		}
		if err := applyScoreDelta(tx, planet, system, -current.Rating); err != nil {
			return err
		}
	}
	return nil
}

// DeletePlanet removes a planet and its comments, subtracting the planet's
// current score from its solar system. Owner only.
func (s *ScoreService) DeletePlanet(requesterID, planetID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return deletePlanetTx(tx, requesterID, planetID)
	})
}

// deletePlanetTx is the transactional body of DeletePlanet.
func deletePlanetTx(tx *gorm.DB, requesterID, planetID uint) error {
	planet, system, err := lockPlanetAndSystem(tx, planetID)
	if err != nil {
		return err
	}
	if planet.UserID != requesterID {
		return fmt.Errorf("%w: planet %d", ErrForbidden, planetID)
	}

	if err := tx.Where("planet_id = ?", planetID).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Delete(planet).Error; err != nil {
		return err
	}
	if planet.Score != 0 {
		if err := tx.Model(system).Update("score", gorm.Expr("score - ?", planet.Score)).Error; err != nil {
			return err
		}
	}
	return nil
}

// lockPlanetAndSystem fetches the planet and its solar system with FOR UPDATE
// row locks, in that order. All score mutations go through here so lock
// acquisition order is consistent.
func lockPlanetAndSystem(tx *gorm.DB, planetID uint) (*models.Planet, *models.SolarSystem, error) {
	var planet models.Planet
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&planet, planetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: planet %d", ErrNotFound, planetID)
		}
		return nil, nil, err
	}

	var system models.SolarSystem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&system, planet.SolarSystemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: solar system %d", ErrNotFound, planet.SolarSystemID)
		}
		return nil, nil, err
	}

	return &planet, &system, nil
}

// applyScoreDelta adds delta to the planet and solar-system scores. Both rows
// are already locked by the caller.
func applyScoreDelta(tx *gorm.DB, planet *models.Planet, system *models.SolarSystem, delta int) error {
	if delta == 0 {
		return nil
	}
	if err := tx.Model(planet).Update("score", gorm.Expr("score + ?", delta)).Error; err != nil {
		return err
	}
	return tx.Model(system).Update("score", gorm.Expr("score + ?", delta)).Error
}
