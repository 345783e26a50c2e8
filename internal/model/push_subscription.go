package model

import "time"

// PushSubscription holds a browser push subscription for a participant who
// wants to be told when an event they follow gets a confirmed time.
type PushSubscription struct {
	Endpoint      string    `gorm:"primaryKey"`
	ParticipantID string    `gorm:"size:64"`
	P256DH        string    `gorm:"column:p256dh;not null"`
	Auth          string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`

	// Associations
	Events []*Event `gorm:"many2many:subscription_event_mapping;"`
}
