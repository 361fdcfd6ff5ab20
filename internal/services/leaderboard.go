package services

import (
	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/visibility"
	"gorm.io/gorm"
)

// LeaderboardLimit is the number of entries per ranking.
const LeaderboardLimit = 10

// Leaderboard holds the top-scored planets and solar systems visible to the
// requester.
type Leaderboard struct {
	Planets      []models.Planet      `json:"planets"`
	SolarSystems []models.SolarSystem `json:"solarSystems"`
}

// LeaderboardService ranks planets and solar systems by score.
type LeaderboardService struct {
	DB *gorm.DB
}

// Top returns the rankings for the requester. Private records only appear in
// their owner's view.
func (s *LeaderboardService) Top(requesterID uint) (*Leaderboard, error) {
	board := &Leaderboard{}

	// Planets only rank if their solar system is visible too, matching the
	// page rule that a hidden system hides everything inside it.
	if err := s.DB.
		Select("planets.*").
		Joins("JOIN solar_systems ON solar_systems.id = planets.solar_system_id").
		Scopes(
			visibility.ScopeTable("planets", requesterID),
			visibility.ScopeTable("solar_systems", requesterID),
		).
		Order("planets.score DESC, planets.name").
		Limit(LeaderboardLimit).
		Find(&board.Planets).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Scopes(visibility.Scope(requesterID)).
		Order("score DESC, name").
		Limit(LeaderboardLimit).
		Find(&board.SolarSystems).Error; err != nil {
		return nil, err
	}

	return board, nil
}
