package model

import "time"

// Event represents a meeting to be scheduled on behalf of a group.
//
// ConfirmedTime stays NULL while the event is open; it is written at most
// once, by the lifecycle service, when the event is finalized.
type Event struct {
	ID            int64      `gorm:"primaryKey"`
	GroupID       string     `gorm:"index;size:64;not null"`
	Period        string     `gorm:"size:256"` // human-readable hint, not used for computation
	Description   string     `gorm:"size:1024"`
	ConfirmedTime *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`

	// Associations
	Windows []AvailabilityWindow `gorm:"foreignKey:EventID"`
}

// Confirmed reports whether the event's time has been decided.
func (e *Event) Confirmed() bool {
	return e.ConfirmedTime != nil
}
