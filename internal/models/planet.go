package models

import (
	"time"
)

// Planet belongs to exactly one solar system. TextureKey points at the stored
// texture bitmap in the blob store; the canonical texture is square, see the
// texture package. Score is derived from comment ratings and maintained
// exclusively by the score service.
type Planet struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint   `gorm:"not null;index" json:"userId"`
	SolarSystemID uint   `gorm:"not null;index:idx_planet_system_name,unique" json:"solarSystemId"`
	Name          string `gorm:"size:50;not null;index:idx_planet_system_name,unique" json:"name"`
	TextureKey    string `gorm:"size:255" json:"textureKey,omitempty"`
	Visibility    bool   `gorm:"not null;default:true" json:"visibility"`
	Score         int    `gorm:"not null;default:0" json:"score"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	User        User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	SolarSystem SolarSystem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Comments    []Comment   `gorm:"foreignKey:PlanetID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Planet
func (Planet) TableName() string {
	return "planets"
}

// OwnerID implements visibility.Record
func (p Planet) OwnerID() uint { return p.UserID }

// IsPublic implements visibility.Record
func (p Planet) IsPublic() bool { return p.Visibility }
