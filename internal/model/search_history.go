package model

import "time"

// SearchHistory records one completed facility search.
type SearchHistory struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	Latitude         float64   `gorm:"not null" json:"latitude"`
	Longitude        float64   `gorm:"not null" json:"longitude"`
	ResultFacilityID int64     `gorm:"index" json:"result_facility_id"`
	FacilityName     string    `gorm:"size:256" json:"facility_name"`
	CreatedAt        time.Time `gorm:"index;not null" json:"created_at"`
}
