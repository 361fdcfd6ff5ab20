package models

import (
	"time"
)

// Rating bounds for comments. A rating of zero means "no rating" and
// contributes nothing to the planet score.
const (
	RatingMin = 0
	RatingMax = 5

	// CommentMaxLen bounds the comment body length.
	CommentMaxLen = 500
)

// Comment is a (body, rating) pair authored by one user about one planet.
// The unique index enforces at most one comment per (planet, user) pair;
// rating changes go through the upsert path in the score service.
type Comment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanetID  uint   `gorm:"not null;index:idx_comment_planet_user,unique" json:"planetId"`
	UserID    uint   `gorm:"not null;index:idx_comment_planet_user,unique" json:"userId"`
	Body      string `gorm:"size:500" json:"body"`
	Rating    int    `gorm:"not null;default:0" json:"rating"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Planet Planet `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
