package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadtheplanet/wadtheplanet/internal/visibility"
)

func TestSearch(t *testing.T) {
	s := newTestStack(t)
	searches := &SearchService{DB: s.db}

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")

	sol, err := s.systems.Create(bob.ID, "Sol", "the home system", true)
	require.NoError(t, err)
	s.mustPlanet(t, bob, sol, "Mars")
	s.mustPlanet(t, bob, sol, "Marsha")
	s.mustPlanet(t, bob, sol, "Venus")

	hidden, err := s.systems.Create(bob.ID, "Marsbase", "", false)
	require.NoError(t, err)

	_, err = searches.Search(anne.ID, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	// Matching is case-insensitive substring over names
	result, err := searches.Search(anne.ID, "MARS")
	require.NoError(t, err)
	assert.Len(t, result.Planets, 2)
	assert.Empty(t, result.SolarSystems, "hidden systems stay out of strangers' results")

	// The owner sees their hidden system
	result, err = searches.Search(bob.ID, "mars")
	require.NoError(t, err)
	require.Len(t, result.SolarSystems, 1)
	assert.Equal(t, hidden.ID, result.SolarSystems[0].ID)

	// System descriptions match too
	result, err = searches.Search(visibility.Anonymous, "home")
	require.NoError(t, err)
	require.Len(t, result.SolarSystems, 1)
	assert.Equal(t, sol.ID, result.SolarSystems[0].ID)
}

// A visible planet inside a hidden solar system must stay out of strangers'
// results, or the hidden system's existence leaks.
func TestSearchHidesPlanetsOfHiddenSystems(t *testing.T) {
	s := newTestStack(t)
	searches := &SearchService{DB: s.db}

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")

	secret, err := s.systems.Create(bob.ID, "Secret", "", false)
	require.NoError(t, err)
	_, err = s.planets.Create(bob.ID, secret.ID, "Mars", true)
	require.NoError(t, err)

	result, err := searches.Search(anne.ID, "mars")
	require.NoError(t, err)
	assert.Empty(t, result.Planets)

	result, err = searches.Search(visibility.Anonymous, "mars")
	require.NoError(t, err)
	assert.Empty(t, result.Planets)

	result, err = searches.Search(bob.ID, "mars")
	require.NoError(t, err)
	assert.Len(t, result.Planets, 1)
}

func TestSearchOrdersByScore(t *testing.T) {
	s := newTestStack(t)
	searches := &SearchService{DB: s.db}

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	sol := s.mustSystem(t, bob, "Sol")
	mars := s.mustPlanet(t, bob, sol, "Mars")
	s.mustPlanet(t, bob, sol, "Marsha")

	_, err := s.scores.UpsertComment(anne.ID, mars.ID, 5, "")
	require.NoError(t, err)

	result, err := searches.Search(visibility.Anonymous, "mars")
	require.NoError(t, err)
	require.Len(t, result.Planets, 2)
	assert.Equal(t, "Mars", result.Planets[0].Name)
	assert.Equal(t, "Marsha", result.Planets[1].Name)
}

func TestLeaderboard(t *testing.T) {
	s := newTestStack(t)
	boards := &LeaderboardService{DB: s.db}

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")

	sol := s.mustSystem(t, bob, "Sol")
	mars := s.mustPlanet(t, bob, sol, "Mars")
	venus := s.mustPlanet(t, bob, sol, "Venus")

	kepler := s.mustSystem(t, anne, "Kepler")
	exo := s.mustPlanet(t, anne, kepler, "Exo")

	_, err := s.scores.UpsertComment(anne.ID, mars.ID, 3, "")
	require.NoError(t, err)
	_, err = s.scores.UpsertComment(anne.ID, venus.ID, 5, "")
	require.NoError(t, err)
	_, err = s.scores.UpsertComment(bob.ID, exo.ID, 4, "")
	require.NoError(t, err)

	board, err := boards.Top(visibility.Anonymous)
	require.NoError(t, err)

	require.Len(t, board.Planets, 3)
	assert.Equal(t, "Venus", board.Planets[0].Name)
	assert.Equal(t, "Exo", board.Planets[1].Name)
	assert.Equal(t, "Mars", board.Planets[2].Name)

	require.Len(t, board.SolarSystems, 2)
	assert.Equal(t, "Sol", board.SolarSystems[0].Name)
	assert.Equal(t, "Kepler", board.SolarSystems[1].Name)
}

func TestLeaderboardHidesPrivateRecords(t *testing.T) {
	s := newTestStack(t)
	boards := &LeaderboardService{DB: s.db}

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")

	secret, err := s.systems.Create(bob.ID, "Secret", "", false)
	require.NoError(t, err)
	_, err = s.planets.Create(bob.ID, secret.ID, "Mars", true)
	require.NoError(t, err)
	s.mustSystem(t, bob, "Sol")

	board, err := boards.Top(anne.ID)
	require.NoError(t, err)
	require.Len(t, board.SolarSystems, 1)
	assert.Equal(t, "Sol", board.SolarSystems[0].Name)
	assert.Empty(t, board.Planets, "a hidden system's planets must not rank for strangers")

	board, err = boards.Top(bob.ID)
	require.NoError(t, err)
	assert.Len(t, board.SolarSystems, 2)
	assert.Len(t, board.Planets, 1)
}
