package models

import (
	"time"

	"gorm.io/datatypes"
)

// Asteroid пишется один раз: повторная синхронизация не обновляет поля.
type Asteroid struct {
	ID                     string         `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Name                   string         `gorm:"type:text;not null" json:"name"`
	NasaJPLURL             string         `gorm:"type:text" json:"nasa_jpl_url"`
	AbsoluteMagnitudeH     *float64       `json:"absolute_magnitude_h,omitempty"`
	EstimatedDiameterMinM  *float64       `json:"estimated_diameter_min_m,omitempty"`
	EstimatedDiameterMaxM  *float64       `json:"estimated_diameter_max_m,omitempty"`
	IsPotentiallyHazardous bool           `gorm:"not null;index" json:"is_potentially_hazardous"`
	IsSentryObject         bool           `gorm:"not null" json:"is_sentry_object"`
	Raw                    datatypes.JSON `json:"-"`
	CreatedAt              time.Time      `gorm:"autoCreateTime" json:"created_at"`

	Approaches []CloseApproach `gorm:"foreignKey:AsteroidID;constraint:OnDelete:CASCADE" json:"approaches,omitempty"`
}

type CloseApproach struct {
	ID                     uint      `gorm:"primaryKey" json:"-"`
	AsteroidID             string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_close_approach_asteroid_epoch,priority:1" json:"asteroid_id"`
	CloseApproachDate      string    `gorm:"type:varchar(10);not null;index" json:"close_approach_date"`
	EpochDateCloseApproach int64     `gorm:"not null;uniqueIndex:idx_close_approach_asteroid_epoch,priority:2" json:"epoch_date_close_approach"`
	RelativeVelocityKmh    float64   `json:"relative_velocity_kmh"`
	MissDistanceKm         float64   `json:"miss_distance_km"`
	OrbitingBody           string    `gorm:"type:varchar(32)" json:"orbiting_body"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
}
