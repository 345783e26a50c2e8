package model

import "time"

// AvailabilityWindow is one participant-submitted time range for an event.
// Rows are immutable once stored. A participant may hold any number of
// windows for the same event, including overlapping ones; all are counted.
type AvailabilityWindow struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	EventID       int64     `gorm:"index;not null"`
	ParticipantID string    `gorm:"size:64;not null"`
	SubmissionID  string    `gorm:"size:36;index;not null"` // groups the windows of one RSVP batch
	StartTime     time.Time `gorm:"not null"`
	EndTime       time.Time `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`

	// Associations
	Event Event `gorm:"constraint:OnDelete:CASCADE"`
}
