package model

import "time"

// PushSubscription holds a browser push subscription of an operator watching
// one or more profiles for tooling changes.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Profiles []*Profile `gorm:"many2many:subscription_profile_mapping;"`
}
