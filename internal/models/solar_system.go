package models

import (
	"time"
)

// SolarSystem is a named, user-owned collection of planets. Score is derived:
// it always equals the sum of the scores of the system's planets and is
// maintained exclusively by the score service.
type SolarSystem struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint   `gorm:"not null;index:idx_system_owner_name,unique" json:"userId"`
	Name        string `gorm:"size:50;not null;index:idx_system_owner_name,unique" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Visibility  bool   `gorm:"not null;default:true" json:"visibility"`
	Score       int    `gorm:"not null;default:0" json:"score"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User    User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Planets []Planet `gorm:"foreignKey:SolarSystemID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for SolarSystem
func (SolarSystem) TableName() string {
	return "solar_systems"
}

// OwnerID implements visibility.Record
func (s SolarSystem) OwnerID() uint { return s.UserID }

// IsPublic implements visibility.Record
func (s SolarSystem) IsPublic() bool { return s.Visibility }
