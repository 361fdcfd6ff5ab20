package services

import (
	"fmt"
	"strings"

	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/visibility"
	"gorm.io/gorm"
)

// SearchLimit caps the number of results per entity kind.
const SearchLimit = 25

// SearchResult groups the entity matches for a query.
type SearchResult struct {
	SolarSystems []models.SolarSystem `json:"solarSystems"`
	Planets      []models.Planet      `json:"planets"`
}

// SearchService implements case-insensitive substring search over solar
// system names/descriptions and planet names. Results are visibility-scoped
// for the requester.
type SearchService struct {
	DB *gorm.DB
}

// Search runs the query for the requester. An empty query is a validation
// error rather than a full listing.
func (s *SearchService) Search(requesterID uint, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrValidation)
	}

	pattern := "%" + strings.ToLower(query) + "%"
	result := &SearchResult{}

	if err := s.DB.Scopes(visibility.Scope(requesterID)).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("score DESC, name").
		Limit(SearchLimit).
		Find(&result.SolarSystems).Error; err != nil {
		return nil, err
	}

	// A planet is findable only if its solar system is visible too, so a
	// hidden system's existence never leaks through its planets.
	if err := s.DB.
		Select("planets.*").
		Joins("JOIN solar_systems ON solar_systems.id = planets.solar_system_id").
		Scopes(
			visibility.ScopeTable("planets", requesterID),
			visibility.ScopeTable("solar_systems", requesterID),
		).
		Where("LOWER(planets.name) LIKE ?", pattern).
		Order("planets.score DESC, planets.name").
		Limit(SearchLimit).
		Find(&result.Planets).Error; err != nil {
		return nil, err
	}

	return result, nil
}
