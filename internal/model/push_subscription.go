package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey;size:512"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Watches []FacilityWatch `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// FacilityWatch marks one facility a subscription wants availability
// notifications for. Facilities themselves are not database rows, so this
// stores only the ID.
type FacilityWatch struct {
	Endpoint   string `gorm:"primaryKey;size:512"`
	FacilityID int64  `gorm:"primaryKey"`
}
