package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"gorm.io/gorm"
)

// The Bob/Anne scenario: rate, re-rate, delete, scores follow.
func TestCommentUpsertAndDeleteScores(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")

	_, err := s.scores.UpsertComment(anne.ID, mars.ID, 4, "nice swirls")
	require.NoError(t, err)
	assert.Equal(t, 4, s.planetScore(t, mars.ID))
	assert.Equal(t, 4, s.systemScore(t, system.ID))

	_, err = s.scores.UpsertComment(anne.ID, mars.ID, 2, "on reflection")
	require.NoError(t, err)
	assert.Equal(t, 2, s.planetScore(t, mars.ID))
	assert.Equal(t, 2, s.systemScore(t, system.ID))
	assert.EqualValues(t, 1, s.commentCount(t, mars.ID), "upsert must not create a second comment")

	require.NoError(t, s.scores.DeleteOwnComment(anne.ID, mars.ID))
	assert.Equal(t, 0, s.planetScore(t, mars.ID))
	assert.Equal(t, 0, s.systemScore(t, system.ID))
	assert.EqualValues(t, 0, s.commentCount(t, mars.ID))
}

func TestCommentUpsertKeepsOneRowPerUser(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")

	first, err := s.scores.UpsertComment(anne.ID, mars.ID, 3, "first")
	require.NoError(t, err)
	second, err := s.scores.UpsertComment(anne.ID, mars.ID, 5, "second")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "upsert must update the existing row")
	assert.Equal(t, "second", second.Body)
	assert.EqualValues(t, 1, s.commentCount(t, mars.ID))

	// A different user gets their own row
	_, err = s.scores.UpsertComment(bob.ID, mars.ID, 1, "my own planet")
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.commentCount(t, mars.ID))
	assert.Equal(t, 6, s.planetScore(t, mars.ID))
}

func TestCommentValidationLeavesNoTrace(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")

	_, err := s.scores.UpsertComment(anne.ID, mars.ID, 6, "too enthusiastic")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.scores.UpsertComment(anne.ID, mars.ID, -1, "negative")
	assert.ErrorIs(t, err, ErrValidation)

	long := make([]byte, models.CommentMaxLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = s.scores.UpsertComment(anne.ID, mars.ID, 3, string(long))
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 0, s.planetScore(t, mars.ID))
	assert.Equal(t, 0, s.systemScore(t, system.ID))
	assert.EqualValues(t, 0, s.commentCount(t, mars.ID))
}

func TestUpsertCommentUnknownPlanet(t *testing.T) {
	s := newTestStack(t)
	anne := s.mustUser(t, "Anne")

	_, err := s.scores.UpsertComment(anne.ID, 12345, 3, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCommentAuthorization(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	carol := s.mustUser(t, "Carol")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")

	comment, err := s.scores.UpsertComment(anne.ID, mars.ID, 4, "")
	require.NoError(t, err)

	// A bystander cannot delete, and nothing changes
	assert.ErrorIs(t, s.scores.DeleteComment(carol.ID, comment.ID), ErrForbidden)
	assert.Equal(t, 4, s.planetScore(t, mars.ID))

	// The planet owner can moderate comments on their planet
	require.NoError(t, s.scores.DeleteComment(bob.ID, comment.ID))
	assert.Equal(t, 0, s.planetScore(t, mars.ID))
	assert.Equal(t, 0, s.systemScore(t, system.ID))
}

// Mars at 10 and Venus at 5 in the same system: deleting Mars leaves 5.
func TestDeletePlanetAdjustsSystemScore(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	carol := s.mustUser(t, "Carol")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")
	venus := s.mustPlanet(t, bob, system, "Venus")

	_, err := s.scores.UpsertComment(anne.ID, mars.ID, 5, "")
	require.NoError(t, err)
	_, err = s.scores.UpsertComment(carol.ID, mars.ID, 5, "")
	require.NoError(t, err)
	_, err = s.scores.UpsertComment(anne.ID, venus.ID, 5, "")
	require.NoError(t, err)
	require.Equal(t, 10, s.planetScore(t, mars.ID))
	require.Equal(t, 5, s.planetScore(t, venus.ID))
	require.Equal(t, 15, s.systemScore(t, system.ID))

	require.NoError(t, s.scores.DeletePlanet(bob.ID, mars.ID))

	assert.Equal(t, 5, s.systemScore(t, system.ID))
	assert.EqualValues(t, 0, s.commentCount(t, mars.ID), "planet deletion must remove its comments")

	var count int64
	require.NoError(t, s.db.Model(&models.Planet{}).Where("id = ?", mars.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestDeletePlanetForbiddenForNonOwner(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")

	assert.ErrorIs(t, s.scores.DeletePlanet(anne.ID, mars.ID), ErrForbidden)

	var count int64
	require.NoError(t, s.db.Model(&models.Planet{}).Where("id = ?", mars.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// The rating subtracted on delete must be the one current at delete time, not
// the value that was in place when the comment was first looked up.
func TestDeleteSubtractsCurrentRating(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")

	comment, err := s.scores.UpsertComment(anne.ID, mars.ID, 4, "")
	require.NoError(t, err)
	_, err = s.scores.UpsertComment(anne.ID, mars.ID, 2, "")
	require.NoError(t, err)

	require.NoError(t, s.scores.DeleteComment(anne.ID, comment.ID))
	assert.Equal(t, 0, s.planetScore(t, mars.ID))
	assert.Equal(t, 0, s.systemScore(t, system.ID))

	// Same through the by-planet path
	comment, err = s.scores.UpsertComment(anne.ID, mars.ID, 5, "")
	require.NoError(t, err)
	_, err = s.scores.UpsertComment(anne.ID, mars.ID, 1, "")
	require.NoError(t, err)
	require.NoError(t, s.scores.DeleteOwnComment(anne.ID, mars.ID))
	assert.Equal(t, 0, s.planetScore(t, mars.ID))
	assert.Equal(t, 0, s.systemScore(t, system.ID))
}

// A failure on the second score write rolls back the whole unit: no comment
// row, no half-applied score.
func TestFailedScoreWriteRollsBackTransaction(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	carol := s.mustUser(t, "Carol")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")

	_, err := s.scores.UpsertComment(anne.ID, mars.ID, 4, "before")
	require.NoError(t, err)

	// Fail every solar_systems update: applyScoreDelta bumps the planet row
	// first, so the in-flight transaction dies after a partial write.
	forced := errors.New("storage gave out")
	require.NoError(t, s.db.Callback().Update().After("gorm:update").
		Register("fail_system_score", func(db *gorm.DB) {
			if db.Statement.Table == "solar_systems" {
				_ = db.AddError(forced)
			}
		}))

	_, err = s.scores.UpsertComment(anne.ID, mars.ID, 2, "after")
	require.ErrorIs(t, err, forced)

	_, err = s.scores.UpsertComment(carol.ID, mars.ID, 5, "new row")
	require.ErrorIs(t, err, forced)

	err = s.scores.DeleteOwnComment(anne.ID, mars.ID)
	require.ErrorIs(t, err, forced)

	require.NoError(t, s.db.Callback().Update().Remove("fail_system_score"))

	var comment models.Comment
	require.NoError(t, s.db.Where("planet_id = ? AND user_id = ?", mars.ID, anne.ID).First(&comment).Error)
	assert.Equal(t, 4, comment.Rating)
	assert.Equal(t, "before", comment.Body)
	assert.EqualValues(t, 1, s.commentCount(t, mars.ID))
	assert.Equal(t, 4, s.planetScore(t, mars.ID))
	assert.Equal(t, 4, s.systemScore(t, system.ID))

	// With the failure gone the same operations go through
	_, err = s.scores.UpsertComment(anne.ID, mars.ID, 2, "after")
	require.NoError(t, err)
	assert.Equal(t, 2, s.planetScore(t, mars.ID))
	assert.Equal(t, 2, s.systemScore(t, system.ID))
}

// Score invariants hold after every step of a mixed upsert/delete sequence.
func TestScoreInvariantsAcrossSequence(t *testing.T) {
	s := newTestStack(t)

	bob := s.mustUser(t, "Bob")
	anne := s.mustUser(t, "Anne")
	carol := s.mustUser(t, "Carol")
	system := s.mustSystem(t, bob, "BobsSystem")
	mars := s.mustPlanet(t, bob, system, "Mars")
	venus := s.mustPlanet(t, bob, system, "Venus")

	type step struct {
		user   *models.User
		planet *models.Planet
		rating int
		delete bool
	}
	steps := []step{
		{anne, mars, 4, false},
		{carol, mars, 5, false},
		{anne, venus, 1, false},
		{anne, mars, 0, false},
		{carol, mars, 2, false},
		{anne, mars, 0, true},
		{carol, venus, 3, false},
		{anne, venus, 0, true},
	}

	for i, st := range steps {
		var err error
		if st.delete {
			err = s.scores.DeleteOwnComment(st.user.ID, st.planet.ID)
		} else {
			_, err = s.scores.UpsertComment(st.user.ID, st.planet.ID, st.rating, "")
		}
		require.NoError(t, err, "step %d", i)

		for _, p := range []*models.Planet{mars, venus} {
			var sum int64
			require.NoError(t, s.db.Model(&models.Comment{}).
				Where("planet_id = ?", p.ID).
				Select("COALESCE(SUM(rating), 0)").
				Scan(&sum).Error)
			assert.EqualValues(t, sum, s.planetScore(t, p.ID), "step %d planet %s", i, p.Name)
		}
		assert.Equal(t, s.planetScore(t, mars.ID)+s.planetScore(t, venus.ID),
			s.systemScore(t, system.ID), "step %d system", i)
	}
}
