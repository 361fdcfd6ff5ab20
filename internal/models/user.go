package models

import (
	"time"
)

// User represents a registered account. Passwords are stored as bcrypt hashes
// and never serialized.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email        string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:60;not null" json:"-"`
	// Identifier is an opaque handle issued at registration, safe to expose
	// to third parties in place of the numeric ID.
	Identifier string `gorm:"type:char(36);not null;uniqueIndex" json:"identifier"`
	AvatarKey  string `gorm:"size:255" json:"avatarKey,omitempty"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	SolarSystems []SolarSystem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comments     []Comment     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}
